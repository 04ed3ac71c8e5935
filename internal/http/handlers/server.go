package handlers

import (
	"github.com/rogerio-castellano/restock-analytics/internal/analytics"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

var (
	productRepo repo.ProductRepository
	saleRepo    repo.SaleRepository
	metricsRepo repo.MetricsRepository
	userRepo    repo.UserRepository
	auditRepo   repo.AuditLogRepository

	engine *analytics.Engine
)

func SetProductRepo(r repo.ProductRepository) {
	productRepo = r
}

func SetSaleRepo(r repo.SaleRepository) {
	saleRepo = r
}

func SetMetricsRepo(r repo.MetricsRepository) {
	metricsRepo = r
}

func SetUserRepo(r repo.UserRepository) {
	userRepo = r
}

func SetAuditRepo(r repo.AuditLogRepository) {
	auditRepo = r
}

func SetAnalyticsEngine(e *analytics.Engine) {
	engine = e
}

func UserRepo() repo.UserRepository {
	return userRepo
}
