package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"crm-backend/internal/database"
	"crm-backend/internal/kanban"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
)

type CreateBoardRequest struct {
	Name               string         `json:"name" binding:"required"`
	Description        string         `json:"description"`
	Settings           datatypes.JSON `json:"settings"`
	WithDefaultColumns bool           `json:"with_default_columns"`
}

type UpdateBoardRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Settings    datatypes.JSON `json:"settings"`
}

type CreateColumnRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdateColumnRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type ReorderColumnsRequest struct {
	ColumnIDs []uint `json:"column_ids" binding:"required"`
}

type CreateBoardTaskRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	AssignedToID *uint      `json:"assigned_to_id"`
	DueDate      *time.Time `json:"due_date"`
}

type MoveBoardTaskRequest struct {
	ColumnID    *uint   `json:"column_id"`
	KanbanOrder *string `json:"kanban_order"`
	AboveTaskID *uint   `json:"above_task_id"`
	BelowTaskID *uint   `json:"below_task_id"`
}

// columnsInOrder preloads a board's columns in display order.
func columnsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("column_order, id")
}

func loadOrgBoard(c *gin.Context, id uint) (*models.Board, bool) {
	org := middleware.CurrentOrg(c)
	var board models.Board
	err := database.DB.Where("id = ? AND org_id = ? AND is_active = ?", id, org.ID, true).First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return nil, false
	}
	return &board, true
}

// boardEditable gates board structure changes to the creator or an admin.
func boardEditable(c *gin.Context, board *models.Board) bool {
	user := middleware.CurrentUser(c)
	if user.IsAdmin() || board.CreatedByID == user.ID {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "only the board creator or an admin may change the board"})
	return false
}

// loadOrgColumn fetches a column whose board belongs to the caller's org.
func loadOrgColumn(c *gin.Context, id uint) (*models.BoardColumn, *models.Board, bool) {
	var column models.BoardColumn
	if err := database.DB.Where("id = ?", id).First(&column).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "column not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return nil, nil, false
	}
	org := middleware.CurrentOrg(c)
	var board models.Board
	err := database.DB.Where("id = ? AND org_id = ? AND is_active = ?", column.BoardID, org.ID, true).First(&board).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "column not found"})
		return nil, nil, false
	}
	return &column, &board, true
}

func CreateBoard(c *gin.Context) {
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	org := middleware.CurrentOrg(c)
	user := middleware.CurrentUser(c)

	board := models.Board{
		OrgID:       org.ID,
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
		IsActive:    true,
		CreatedByID: user.ID,
	}
	if req.WithDefaultColumns {
		board.Columns = kanban.DefaultBoardColumns()
	}
	if err := database.DB.Create(&board).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create board", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, board)
}

func ListBoards(c *gin.Context) {
	org := middleware.CurrentOrg(c)
	var boards []models.Board
	err := database.DB.Preload("Columns", columnsInOrder).
		Where("org_id = ? AND is_active = ?", org.ID, true).
		Order("id").Find(&boards).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list boards", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

// GetBoard returns the board with its columns and each column's cards in
// kanban order.
func GetBoard(c *gin.Context) {
	id, ok := parseUintParam(c, "board_id")
	if !ok {
		return
	}
	org := middleware.CurrentOrg(c)
	var board models.Board
	err := database.DB.
		Preload("Columns", columnsInOrder).
		Preload("Columns.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("kanban_order, created_at DESC, id DESC").Limit(columnCap)
		}).
		Where("id = ? AND org_id = ? AND is_active = ?", id, org.ID, true).
		First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, board)
}

func UpdateBoard(c *gin.Context) {
	id, ok := parseUintParam(c, "board_id")
	if !ok {
		return
	}
	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	board, ok := loadOrgBoard(c, id)
	if !ok || !boardEditable(c, board) {
		return
	}

	if req.Name != nil {
		board.Name = *req.Name
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.Settings != nil {
		board.Settings = req.Settings
	}
	if err := database.DB.Save(board).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update board", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, board)
}

func DeleteBoard(c *gin.Context) {
	id, ok := parseUintParam(c, "board_id")
	if !ok {
		return
	}
	board, ok := loadOrgBoard(c, id)
	if !ok || !boardEditable(c, board) {
		return
	}
	board.IsActive = false
	if err := database.DB.Save(board).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete board", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "board deleted"})
}

func CreateBoardColumn(c *gin.Context) {
	boardID, ok := parseUintParam(c, "board_id")
	if !ok {
		return
	}
	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	board, ok := loadOrgBoard(c, boardID)
	if !ok || !boardEditable(c, board) {
		return
	}

	var maxOrder *int
	if err := database.DB.Model(&models.BoardColumn{}).Where("board_id = ?", board.ID).
		Select("max(column_order)").Scan(&maxOrder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	order := 0
	if maxOrder != nil {
		order = *maxOrder + 1
	}

	column := models.BoardColumn{
		BoardID: board.ID,
		Name:    req.Name,
		Order:   order,
		Color:   req.Color,
	}
	if err := database.DB.Create(&column).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create column", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, column)
}

func UpdateBoardColumn(c *gin.Context) {
	columnID, ok := parseUintParam(c, "column_id")
	if !ok {
		return
	}
	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	column, board, ok := loadOrgColumn(c, columnID)
	if !ok || !boardEditable(c, board) {
		return
	}

	if req.Name != nil {
		column.Name = *req.Name
	}
	if req.Color != nil {
		column.Color = *req.Color
	}
	if err := database.DB.Save(column).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update column", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, column)
}

// DeleteBoardColumn hard-deletes a column; blocked while cards remain.
func DeleteBoardColumn(c *gin.Context) {
	columnID, ok := parseUintParam(c, "column_id")
	if !ok {
		return
	}
	column, board, ok := loadOrgColumn(c, columnID)
	if !ok || !boardEditable(c, board) {
		return
	}

	var n int64
	if err := database.DB.Model(&models.BoardTask{}).Where("column_id = ?", column.ID).Count(&n).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}
	if n > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("cannot delete column %q: %d task(s) still reference it", column.Name, n),
		})
		return
	}
	if err := database.DB.Delete(column).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete column", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "column deleted"})
}

// ReorderBoardColumns rewrites column order from an ordered id list, all or
// nothing.
func ReorderBoardColumns(c *gin.Context) {
	boardID, ok := parseUintParam(c, "board_id")
	if !ok {
		return
	}
	var req ReorderColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	board, ok := loadOrgBoard(c, boardID)
	if !ok || !boardEditable(c, board) {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var columns []models.BoardColumn
		if err := tx.Where("board_id = ?", board.ID).Find(&columns).Error; err != nil {
			return err
		}
		if len(req.ColumnIDs) != len(columns) {
			return &kanban.ValidationError{
				Msg: fmt.Sprintf("reorder must list all %d columns of the board, got %d ids", len(columns), len(req.ColumnIDs)),
			}
		}
		owned := make(map[uint]bool, len(columns))
		for _, col := range columns {
			owned[col.ID] = true
		}
		seen := make(map[uint]bool, len(req.ColumnIDs))
		for _, id := range req.ColumnIDs {
			if !owned[id] {
				return &kanban.ValidationError{Msg: fmt.Sprintf("column %d does not belong to the board", id)}
			}
			if seen[id] {
				return &kanban.ValidationError{Msg: fmt.Sprintf("column %d listed twice", id)}
			}
			seen[id] = true
		}
		for idx, id := range req.ColumnIDs {
			if err := tx.Model(&models.BoardColumn{}).Where("id = ?", id).Update("column_order", idx).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondKanbanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "columns reordered"})
}

func CreateBoardTask(c *gin.Context) {
	columnID, ok := parseUintParam(c, "column_id")
	if !ok {
		return
	}
	var req CreateBoardTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	column, board, ok := loadOrgColumn(c, columnID)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)

	// New cards land at the end of the column.
	cards := func() *gorm.DB {
		sub := database.DB.Model(&models.BoardColumn{}).Select("id").Where("board_id = ?", board.ID)
		return database.DB.Table("board_tasks").Where("column_id IN (?)", sub)
	}
	columnQ := func() *gorm.DB {
		return database.DB.Table("board_tasks").Where("column_id = ?", column.ID)
	}
	order, err := kanban.ComputeOrder(cards, columnQ, 0, kanban.OrderHints{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "details": err.Error()})
		return
	}

	task := models.BoardTask{
		ColumnID:     column.ID,
		Title:        req.Title,
		Description:  req.Description,
		KanbanOrder:  order,
		AssignedToID: req.AssignedToID,
		CreatedByID:  user.ID,
		DueDate:      req.DueDate,
	}
	if err := database.DB.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, task)
}

// MoveBoardTask repositions a card, optionally into another column of the
// same board.
func MoveBoardTask(c *gin.Context) {
	taskID, ok := parseUintParam(c, "task_id")
	if !ok {
		return
	}
	var req MoveBoardTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var hints kanban.OrderHints
	if req.KanbanOrder != nil {
		d, err := decimal.NewFromString(*req.KanbanOrder)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kanban_order"})
			return
		}
		hints.Explicit = &d
	}
	if req.AboveTaskID != nil {
		hints.AboveID = *req.AboveTaskID
	}
	if req.BelowTaskID != nil {
		hints.BelowID = *req.BelowTaskID
	}

	var moved models.BoardTask
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var task models.BoardTask
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &kanban.NotFoundError{Resource: "task"}
			}
			return err
		}

		// The current column pins the task (and the request) to one board.
		var current models.BoardColumn
		if err := tx.Where("id = ?", task.ColumnID).First(&current).Error; err != nil {
			return err
		}
		org := middleware.CurrentOrg(c)
		var board models.Board
		err := tx.Where("id = ? AND org_id = ? AND is_active = ?", current.BoardID, org.ID, true).First(&board).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &kanban.NotFoundError{Resource: "task"}
			}
			return err
		}

		user := middleware.CurrentUser(c)
		if !user.IsAdmin() && board.CreatedByID != user.ID && task.CreatedByID != user.ID &&
			(task.AssignedToID == nil || *task.AssignedToID != user.ID) {
			return &kanban.PermissionError{Reason: "only the card creator, its assignee, the board creator or an admin may move it"}
		}

		destColumnID := task.ColumnID
		if req.ColumnID != nil {
			var dest models.BoardColumn
			err := tx.Where("id = ? AND board_id = ?", *req.ColumnID, board.ID).First(&dest).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &kanban.NotFoundError{Resource: "column"}
				}
				return err
			}
			destColumnID = dest.ID
		}

		cards := func() *gorm.DB {
			sub := tx.Model(&models.BoardColumn{}).Select("id").Where("board_id = ?", board.ID)
			return tx.Table("board_tasks").Where("column_id IN (?)", sub)
		}
		columnQ := func() *gorm.DB {
			return tx.Table("board_tasks").Where("column_id = ?", destColumnID)
		}
		order, err := kanban.ComputeOrder(cards, columnQ, task.ID, hints)
		if err != nil {
			return err
		}

		task.ColumnID = destColumnID
		task.KanbanOrder = order
		if err := tx.Save(&task).Error; err != nil {
			return err
		}
		moved = task
		return nil
	})
	if err != nil {
		respondKanbanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task moved", "task": moved})
}
