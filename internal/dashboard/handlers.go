package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/zeluilo/hms-sub001/internal/payment"
	"github.com/zeluilo/hms-sub001/internal/report"
	"github.com/zeluilo/hms-sub001/pkg/monitoring"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// setupRoutes configures all HTTP routes for the dashboard service
func (s *Service) setupRoutes(router *mux.Router) {
	router.Use(s.requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.authMiddleware)

	router.HandleFunc(s.config.Monitoring.HealthPath, s.handleHealth).Methods("GET")
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")

	api.HandleFunc("/views/accountant", s.handleAccountantView).Methods("GET")
	api.HandleFunc("/views/billing", s.handleBillingView).Methods("GET")
	api.HandleFunc("/views/debtors", s.handleDebtorsView).Methods("GET")
	api.HandleFunc("/views/bookings", s.handleBookingsView).Methods("GET")

	api.HandleFunc("/payments", s.handleSubmitPayment).Methods("POST")
	api.HandleFunc("/payments/{id:[0-9]+}", s.handleAmendPayment).Methods("PUT")
	api.HandleFunc("/notifications", s.handleNotifications).Methods("GET")
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	rep := s.health.CheckHealth(r.Context())
	status := http.StatusOK
	if rep.Status == monitoring.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSONResponse(w, status, rep)
}

// handleLogin verifies credentials against the backend and issues a
// session token.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeValidationFailed, "invalid request body", nil))
		return
	}
	if creds.Username == "" || creds.Password == "" {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeValidationFailed, "username and password are required", nil))
		return
	}

	if !s.logins.Allow(creds.Username) {
		s.metrics.RecordAuthAttempt("password", "throttled")
		s.writeJSONResponse(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":   "RATE_LIMITED",
			"message": "Too many login attempts. Please wait and try again.",
		})
		return
	}

	user, err := s.auth.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		s.metrics.RecordAuthAttempt("password", "failure")
		s.writeErrorResponse(w, err)
		return
	}
	s.logins.Reset(creds.Username)

	sess, err := s.sessions.Issue(*user)
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.metrics.RecordAuthAttempt("password", "success")
	s.logger.Audit(user.ID, "user_login", "session", true, map[string]interface{}{"role": user.Role})

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"user":       sess.User,
	})
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "no active session"))
		return
	}

	s.sessions.Invalidate(sess)
	s.logger.Audit(sess.User.ID, "user_logout", "session", true, nil)
	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// handleAccountantView returns the revenue dashboard: per-period buckets
// plus running totals for today, this month and this year. Records with
// no usable payment date are counted, not silently dropped.
func (s *Service) handleAccountantView(w http.ResponseWriter, r *http.Request) {
	data, err := s.billing.FetchBillingSources(r.Context())
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	records := data.All()
	if err := s.resolveBasePrice(r.Context(), records); err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	period := parsePeriod(r)
	now := time.Now()

	agg := report.Aggregate(records, period)

	today, _ := report.SumWindow(records, report.WindowFor(types.PeriodDay, now))
	month, _ := report.SumWindow(records, report.WindowFor(types.PeriodMonth, now))
	year, _ := report.SumWindow(records, report.WindowFor(types.PeriodYear, now))

	if agg.Skipped > 0 {
		s.metrics.RecordSkippedRecords("accountant", agg.Skipped)
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"period":     agg.Period,
		"buckets":    agg.Buckets,
		"skipped":    agg.Skipped,
		"today":      today,
		"this_month": month,
		"this_year":  year,
	})
}

// handleBillingView returns payment rows: records grouped by payment so
// all the line items settled together render as one row.
func (s *Service) handleBillingView(w http.ResponseWriter, r *http.Request) {
	data, err := s.billing.GetPaymentData(r.Context())
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	records := data.All()
	if err := s.resolveBasePrice(r.Context(), records); err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	groups := report.Group(records, report.PaymentKey)
	groups = report.FilterGroups(groups, parseFilterState(r))

	page := parsePageState(r, s.pageSize)
	pageGroups, totalPages := report.Paginate(groups, page.Index, page.Size)

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"groups":      pageGroups,
		"page":        page.Index,
		"total_pages": totalPages,
		"total_rows":  len(groups),
	})
}

// handleDebtorsView returns prescriptions still owed, one row per
// patient with every outstanding line item.
func (s *Service) handleDebtorsView(w http.ResponseWriter, r *http.Request) {
	records, err := s.billing.GetGroupedPrescriptions(r.Context())
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	state := parseFilterState(r)
	state.Status = types.StatusNotPaid
	unpaid := report.Filter(records, state)

	groups := report.Group(unpaid, report.PatientKey)

	page := parsePageState(r, s.pageSize)
	pageGroups, totalPages := report.Paginate(groups, page.Index, page.Size)

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"groups":      pageGroups,
		"page":        page.Index,
		"total_pages": totalPages,
		"total_rows":  len(groups),
	})
}

func (s *Service) handleBookingsView(w http.ResponseWriter, r *http.Request) {
	records, err := s.billing.GetAllBookings(r.Context())
	if err != nil {
		s.writeErrorResponse(w, err)
		return
	}
	if err := s.resolveBasePrice(r.Context(), records); err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	filtered := report.Filter(records, parseFilterState(r))

	page := parsePageState(r, s.pageSize)
	pageRecords, totalPages := report.Paginate(filtered, page.Index, page.Size)

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"records":     pageRecords,
		"page":        page.Index,
		"total_pages": totalPages,
		"total_rows":  len(filtered),
	})
}

// handleSubmitPayment runs one payment through the submission flow:
// validate, create the payment, then flip the booking status.
func (s *Service) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	var form payment.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeValidationFailed, "invalid request body", nil))
		return
	}

	flow := payment.NewFlow(s.payments, s.logger, s.metrics, nil)
	flow.Edit(form)

	if err := flow.Submit(r.Context()); err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": flow.Message()})
}

// handleAmendPayment corrects an already-recorded payment.
func (s *Service) handleAmendPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeValidationFailed, "invalid payment id", nil))
		return
	}

	var form payment.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeErrorResponse(w, types.NewValidationError(types.ErrCodeValidationFailed, "invalid request body", nil))
		return
	}

	flow := payment.NewFlow(s.payments, s.logger, s.metrics, nil)
	flow.Edit(form)

	if err := flow.Amend(r.Context(), paymentID); err != nil {
		s.writeErrorResponse(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": flow.Message()})
}

func (s *Service) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, updatedAt := s.poller.Latest()

	resp := map[string]interface{}{
		"notifications": notifications,
		"updated_at":    updatedAt,
	}
	if err := s.poller.LastError(); err != nil {
		resp["stale"] = true
	}

	s.writeJSONResponse(w, http.StatusOK, resp)
}

// resolveBasePrice fills the visit base price into appointment records
// that carry no explicit amount, so they are not miscounted as free
// visits. The price is fetched once per request, and only when a record
// actually needs it.
func (s *Service) resolveBasePrice(ctx context.Context, records []types.Record) error {
	needsBase := func(r *types.Record) bool {
		return r.Kind == types.KindAppointment && r.TotalAmount == nil && r.Price == nil
	}

	missing := false
	for i := range records {
		if needsBase(&records[i]) {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	base, err := s.billing.GetPaymentPrice(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if needsBase(&records[i]) {
			price := base
			records[i].Price = &price
		}
	}
	return nil
}

// parseFilterState reads the view filter predicates from query params.
// Absent params leave the corresponding predicate inactive.
func parseFilterState(r *http.Request) types.FilterState {
	q := r.URL.Query()
	state := types.FilterState{
		Term:   q.Get("search"),
		Status: types.PaymentStatus(q.Get("status")),
	}

	from, fromOK := types.ParseDate(q.Get("from"))
	to, toOK := types.ParseDate(q.Get("to"))
	if fromOK && toOK {
		state.Range = &types.DateRange{Start: from, End: to}
	}

	return state
}

func parsePageState(r *http.Request, defaultSize int) types.PageState {
	q := r.URL.Query()
	page := types.PageState{Size: defaultSize}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 0 {
		page.Index = v
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil && v > 0 {
		page.Size = v
	}

	return page
}

func parsePeriod(r *http.Request) types.Period {
	switch types.Period(r.URL.Query().Get("period")) {
	case types.PeriodDay:
		return types.PeriodDay
	case types.PeriodYear:
		return types.PeriodYear
	default:
		return types.PeriodMonth
	}
}

func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeErrorResponse maps a ServiceError to an HTTP status and renders a
// single user-facing banner message.
func (s *Service) writeErrorResponse(w http.ResponseWriter, err error) {
	var svcErr *types.ServiceError
	if !errors.As(err, &svcErr) {
		svcErr = types.NewInternalError(types.ErrCodeInternalError, "internal server error", err)
	}

	status := http.StatusInternalServerError
	switch svcErr.Type {
	case types.ErrorTypeTransport, types.ErrorTypeBadResponse:
		status = http.StatusBadGateway
	case types.ErrorTypeValidation:
		status = http.StatusBadRequest
	case types.ErrorTypeDuplicate:
		status = http.StatusConflict
	case types.ErrorTypeAuthentication:
		status = http.StatusUnauthorized
	case types.ErrorTypeNotFound:
		status = http.StatusNotFound
	}

	s.writeJSONResponse(w, status, map[string]interface{}{
		"error":   svcErr.Code,
		"message": svcErr.Message,
	})
}
