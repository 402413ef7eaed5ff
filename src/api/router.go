package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tarefo-server/src/bank"
	sqlstore "tarefo-server/src/db/sql"
	"tarefo-server/src/handlers"
	"tarefo-server/src/middleware"
	"tarefo-server/src/recurring"
)

type Deps struct {
	Store     *sqlstore.Store
	Syncer    *bank.Syncer
	Processor *recurring.Processor
	Registry  *prometheus.Registry
	Logger    *zap.Logger
	JWTSecret string
	Origins   string
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(d.Origins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(d.Store, d.JWTSecret, d.Logger))
		r.Post("/register", handlers.Register(d.Store, d.JWTSecret, d.Logger))

		// Protected finance routes
		r.Route("/finance", func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(d.JWTSecret))

			// Banks
			r.Get("/banks", handlers.GetBanks(d.Store, d.Logger))
			r.Get("/banks/{bank_id}", handlers.GetBank(d.Store, d.Logger))

			// Bank accounts
			r.Get("/accounts", handlers.GetAccounts(d.Store, d.Logger))
			r.Post("/accounts", handlers.CreateAccount(d.Store, d.Logger))
			r.Get("/accounts/{account_id}", handlers.GetAccount(d.Store, d.Logger))
			r.Delete("/accounts/{account_id}", handlers.DeleteAccount(d.Store, d.Logger))
			r.Post("/accounts/{account_id}/sync", handlers.SyncAccount(d.Store, d.Syncer, d.Logger))
			r.Get("/accounts/{account_id}/transactions", handlers.GetAccountTransactions(d.Store, d.Logger))

			// Transactions
			r.Get("/transactions", handlers.GetTransactions(d.Store, d.Logger))
			r.Post("/transactions", handlers.CreateTransaction(d.Store, d.Logger))
			r.Put("/transactions/{transaction_id}", handlers.UpdateTransaction(d.Store, d.Logger))
			r.Delete("/transactions/{transaction_id}", handlers.DeleteTransaction(d.Store, d.Logger))

			// Recurring transactions
			r.Get("/recurring", handlers.GetRecurringTransactions(d.Store, d.Logger))
			r.Post("/recurring", handlers.CreateRecurringTransaction(d.Store, d.Logger))
			r.Put("/recurring/{recurring_id}", handlers.UpdateRecurringTransaction(d.Store, d.Logger))
			r.Delete("/recurring/{recurring_id}", handlers.DeleteRecurringTransaction(d.Store, d.Logger))

			// Categories
			r.Get("/categories", handlers.GetCategories(d.Store, d.Logger))
			r.Post("/categories", handlers.CreateCategory(d.Store, d.Logger))
			r.Delete("/categories/{category_id}", handlers.DeleteCategory(d.Store, d.Logger))

			// Financial goals
			r.Get("/goals", handlers.GetFinancialGoals(d.Store, d.Logger))
			r.Post("/goals", handlers.CreateFinancialGoal(d.Store, d.Logger))
			r.Put("/goals/{goal_id}", handlers.UpdateFinancialGoal(d.Store, d.Logger))
			r.Delete("/goals/{goal_id}", handlers.DeleteFinancialGoal(d.Store, d.Logger))
		})

		// Admin routes
		r.With(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.AdminMiddleware).Group(func(r chi.Router) {
			r.Post("/admin/banks", handlers.CreateBank(d.Store, d.Logger))
			r.Put("/admin/banks/{bank_id}", handlers.UpdateBank(d.Store, d.Logger))
			r.Delete("/admin/banks/{bank_id}", handlers.DeleteBank(d.Store, d.Logger))
			r.Post("/admin/sync", handlers.SyncAllAccounts(d.Store, d.Syncer, d.Logger))
			r.Post("/admin/recurring/process", handlers.ProcessDueRecurring(d.Processor, d.Logger))
		})
	})

	return r
}
