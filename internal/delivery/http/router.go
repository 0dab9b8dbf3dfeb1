package http

import (
	"net/http"

	"medical-records/internal/delivery/http/handler"
	"medical-records/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router             *mux.Router
	authHandler        *handler.AuthHandler
	userHandler        *handler.UserHandler
	memberHandler      *handler.MemberHandler
	medicalFileHandler *handler.MedicalFileHandler
	auditLogHandler    *handler.AuditLogHandler
	systemHandler      *handler.SystemHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
	loggingMiddleware  *middleware.LoggingMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	memberHandler *handler.MemberHandler,
	medicalFileHandler *handler.MedicalFileHandler,
	auditLogHandler *handler.AuditLogHandler,
	systemHandler *handler.SystemHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		authHandler:        authHandler,
		userHandler:        userHandler,
		memberHandler:      memberHandler,
		medicalFileHandler: medicalFileHandler,
		auditLogHandler:    auditLogHandler,
		systemHandler:      systemHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
		loggingMiddleware:  loggingMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// Health check
	r.router.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := r.router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := r.router.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := r.router.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/users", r.userHandler.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", r.userHandler.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/toggle", r.userHandler.ToggleUserActive).Methods(http.MethodPost)
	admin.HandleFunc("/init-db", r.systemHandler.InitDatabase).Methods(http.MethodPost)
	admin.HandleFunc("/status", r.systemHandler.Status).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)
	admin.HandleFunc("/members/{public_id}/history", r.auditLogHandler.GetMemberHistory).Methods(http.MethodGet)

	// Member routes (any authenticated user)
	members := r.router.PathPrefix("/").Subrouter()
	members.Use(r.authMiddleware.Authenticate)
	members.HandleFunc("/", r.memberHandler.Dashboard).Methods(http.MethodGet)
	members.HandleFunc("/view-member/{public_id}", r.memberHandler.GetMember).Methods(http.MethodGet)
	members.HandleFunc("/api/member/{public_id}", r.memberHandler.GetMemberRecord).Methods(http.MethodGet)
	members.HandleFunc("/search", r.memberHandler.SearchMembers).Methods(http.MethodGet)
	members.HandleFunc("/export-members", r.memberHandler.ExportMembers).Methods(http.MethodGet)
	members.HandleFunc("/download-file/{id}", r.medicalFileHandler.DownloadFile).Methods(http.MethodGet)
	members.HandleFunc("/view-file/{id}", r.medicalFileHandler.ViewFile).Methods(http.MethodGet)
	// Admin or uploader, checked by the usecase
	members.HandleFunc("/delete-file/{id}", r.medicalFileHandler.DeleteFile).Methods(http.MethodPost)

	members.Handle("/add-member", middleware.RequireMemberCreator(http.HandlerFunc(r.memberHandler.CreateMember))).Methods(http.MethodPost)
	members.Handle("/update-member/{public_id}", middleware.RequireMemberEditor(http.HandlerFunc(r.memberHandler.UpdateMember))).Methods(http.MethodPost)
	members.Handle("/upload-file/{public_id}", middleware.RequireMemberEditor(http.HandlerFunc(r.medicalFileHandler.UploadFile))).Methods(http.MethodPost)
	members.Handle("/delete-member/{public_id}", middleware.RequireMemberDeleter(http.HandlerFunc(r.memberHandler.DeleteMember))).Methods(http.MethodPost)
	members.Handle("/backup-data", middleware.RequireAdmin(http.HandlerFunc(r.memberHandler.Backup))).Methods(http.MethodGet)
	members.Handle("/import-data", middleware.RequireAdmin(http.HandlerFunc(r.memberHandler.ImportMembers))).Methods(http.MethodPost)

	r.router.Use(r.loggingMiddleware.Handle)
	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
