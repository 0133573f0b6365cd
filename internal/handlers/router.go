package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"crm-backend/internal/middleware"
)

// SetupRouter wires middleware and routes. Shared between main and the
// handler tests.
func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Org-ID", "X-User-ID"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.RequestID(), middleware.OrgContext())

	api.GET("/users", ListUsers)
	api.POST("/users", CreateUser)

	api.POST("/pipelines", CreatePipeline)
	api.GET("/pipelines", ListPipelines)
	api.GET("/pipelines/:pipeline_id", GetPipeline)
	api.PUT("/pipelines/:pipeline_id", UpdatePipeline)
	api.DELETE("/pipelines/:pipeline_id", DeletePipeline)
	api.POST("/pipelines/:pipeline_id/stages", CreateStage)
	api.POST("/pipelines/:pipeline_id/stages/reorder", ReorderStages)
	api.PUT("/stages/:stage_id", UpdateStage)
	api.DELETE("/stages/:stage_id", DeleteStage)

	api.GET("/kanban/leads", LeadKanban)
	api.POST("/leads", CreateLead)
	api.GET("/leads", ListLeads)
	api.GET("/leads/:lead_id", GetLead)
	api.PUT("/leads/:lead_id", UpdateLead)
	api.DELETE("/leads/:lead_id", DeleteLead)
	api.POST("/leads/:lead_id/move", MoveLead)

	api.GET("/kanban/tasks", TaskKanban)
	api.POST("/tasks", CreateTask)
	api.GET("/tasks", ListTasks)
	api.GET("/tasks/:task_id", GetTask)
	api.PUT("/tasks/:task_id", UpdateTask)
	api.DELETE("/tasks/:task_id", DeleteTask)
	api.POST("/tasks/:task_id/move", MoveTask)

	api.POST("/boards", CreateBoard)
	api.GET("/boards", ListBoards)
	api.GET("/boards/:board_id", GetBoard)
	api.PUT("/boards/:board_id", UpdateBoard)
	api.DELETE("/boards/:board_id", DeleteBoard)
	api.POST("/boards/:board_id/columns", CreateBoardColumn)
	api.POST("/boards/:board_id/columns/reorder", ReorderBoardColumns)
	api.PUT("/columns/:column_id", UpdateBoardColumn)
	api.DELETE("/columns/:column_id", DeleteBoardColumn)
	api.POST("/columns/:column_id/tasks", CreateBoardTask)
	api.POST("/board-tasks/:task_id/move", MoveBoardTask)

	return r
}
