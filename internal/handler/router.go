package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/internal/middleware"
	"github.com/noah-isme/agreements-api/internal/models"
	"github.com/noah-isme/agreements-api/internal/policy"
)

// Routes groups every handler the API serves together with the guards applied to them.
type Routes struct {
	Auth          *AuthHandler
	Dashboard     *DashboardHandler
	Agreements    *AgreementHandler
	Reports       *ReportHandler
	Activities    *ActivityHandler
	Supervisors   *SupervisorHandler
	Users         *UserHandler
	Notifications *NotificationHandler
	Metrics       *MetricsHandler

	Tokens middleware.TokenValidator
	Audit  middleware.AuditRecorder
}

// Register mounts probes at the root and the API under prefix.
func (rt Routes) Register(r *gin.Engine, prefix string) {
	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Ready)
	r.GET("/metrics", rt.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", rt.Auth.Login)
	auth.POST("/refresh", rt.Auth.Refresh)

	// The signed token authorizes downloads so links work without a bearer header.
	api.GET("/agreements/:id/file/download", rt.Agreements.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(rt.Tokens))

	secured.POST("/auth/logout", rt.Auth.Logout)
	secured.GET("/auth/me", rt.Auth.Me)

	secured.GET("/dashboard", middleware.Authorize(policy.DashboardView), rt.Dashboard.Summary)
	secured.GET("/system/metrics", middleware.Authorize(policy.SystemMetrics), rt.Metrics.System)

	agreements := secured.Group("/agreements")
	agreements.GET("", middleware.Authorize(policy.AgreementList), rt.Agreements.List)
	agreements.POST("", middleware.Authorize(policy.AgreementCreate), middleware.Audit(rt.Audit, models.AuditActionAgreementCreate, "agreement"), rt.Agreements.Create)
	agreements.GET("/expiring", middleware.Authorize(policy.AgreementList), rt.Agreements.Expiring)
	agreements.GET("/export", middleware.Authorize(policy.AgreementList), rt.Agreements.Export)
	agreements.POST("/reconcile", middleware.Authorize(policy.AgreementUpdate), rt.Agreements.Reconcile)
	agreements.GET("/:id", middleware.Authorize(policy.AgreementView), rt.Agreements.Get)
	agreements.PUT("/:id", middleware.Authorize(policy.AgreementUpdate), middleware.Audit(rt.Audit, models.AuditActionAgreementUpdate, "agreement"), rt.Agreements.Update)
	agreements.DELETE("/:id", middleware.Authorize(policy.AgreementDelete), middleware.Audit(rt.Audit, models.AuditActionAgreementDelete, "agreement"), rt.Agreements.Delete)
	agreements.POST("/:id/file", middleware.Authorize(policy.AgreementUpdate), rt.Agreements.UploadFile)
	agreements.GET("/:id/file/url", middleware.Authorize(policy.AgreementView), rt.Agreements.FileURL)
	agreements.GET("/:id/reports", middleware.Authorize(policy.ReportList), rt.Reports.ListByAgreement)
	agreements.POST("/:id/reports", middleware.Authorize(policy.ReportCreate), rt.Reports.Create)
	agreements.GET("/:id/activities", middleware.Authorize(policy.ActivityList), rt.Activities.ListByAgreement)
	agreements.POST("/:id/activities", middleware.Authorize(policy.ActivityCreate), rt.Activities.Create)

	reports := secured.Group("/reports")
	reports.GET("/mine", middleware.Authorize(policy.ReportCreate), rt.Reports.Mine)
	reports.GET("/:id", middleware.Authorize(policy.ReportList), rt.Reports.Get)
	reports.PATCH("/:id", middleware.Authorize(policy.ReportReview), middleware.Audit(rt.Audit, models.AuditActionReportReview, "report"), rt.Reports.Review)
	reports.DELETE("/:id", middleware.Authorize(policy.ReportDelete), rt.Reports.Delete)

	activities := secured.Group("/activities")
	activities.PATCH("/:id", middleware.Authorize(policy.ActivityUpdate), rt.Activities.Update)
	activities.POST("/:id/complete", middleware.Authorize(policy.ActivityUpdate), rt.Activities.Complete)
	activities.DELETE("/:id", middleware.Authorize(policy.ActivityDelete), rt.Activities.Delete)

	supervisors := secured.Group("/supervisors")
	supervisors.GET("", middleware.Authorize(policy.SupervisorList), rt.Supervisors.List)
	supervisors.POST("", middleware.Authorize(policy.SupervisorCreate), rt.Supervisors.Create)
	supervisors.GET("/:id", middleware.Authorize(policy.SupervisorView), rt.Supervisors.Get)
	supervisors.PUT("/:id", middleware.Authorize(policy.SupervisorUpdate), rt.Supervisors.Update)
	supervisors.GET("/:id/workload", middleware.Authorize(policy.SupervisorView), rt.Supervisors.Workload)
	supervisors.GET("/:id/available-agreements", middleware.Authorize(policy.SupervisorView), rt.Supervisors.AvailableAgreements)
	supervisors.POST("/:id/agreements", middleware.Authorize(policy.SupervisorAssign), middleware.Audit(rt.Audit, models.AuditActionAssign, "supervisor"), rt.Supervisors.Assign)
	supervisors.DELETE("/:id/agreements/:agreementId", middleware.Authorize(policy.SupervisorAssign), middleware.Audit(rt.Audit, models.AuditActionUnassign, "supervisor"), rt.Supervisors.Unassign)
	supervisors.POST("/:id/alerts", middleware.Authorize(policy.SupervisorAlert), rt.Supervisors.SendAlert)
	supervisors.POST("/:id/evaluations", middleware.Authorize(policy.EvaluationCreate), rt.Supervisors.CreateEvaluation)
	supervisors.GET("/:id/evaluations", middleware.Authorize(policy.EvaluationList), rt.Supervisors.ListEvaluations)

	users := secured.Group("/users")
	users.GET("", middleware.Authorize(policy.UserList), rt.Users.List)
	users.POST("", middleware.Authorize(policy.UserCreate), rt.Users.Create)
	users.GET("/:id", middleware.Authorize(policy.UserView), rt.Users.Get)
	users.PUT("/:id", middleware.Authorize(policy.UserUpdate), rt.Users.Update)
	users.DELETE("/:id", middleware.Authorize(policy.UserDelete), rt.Users.Delete)

	notifications := secured.Group("/notifications")
	notifications.GET("", middleware.Authorize(policy.NotificationView), rt.Notifications.List)
	notifications.POST("/:id/read", middleware.Authorize(policy.NotificationUpdate), rt.Notifications.MarkRead)
}
