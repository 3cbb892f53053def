package router

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studynest/config"
	"studynest/internal/auth"
	"studynest/internal/domain"
	"studynest/internal/models"
	"studynest/internal/repository"
	"studynest/internal/testutil"
	"studynest/internal/ws"
	"studynest/pkg/cloudinary/cloudinarytest"
	"studynest/pkg/metrics"
	"studynest/pkg/payment"
	"studynest/pkg/payment/paymenttest"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_router_test"

type testEnv struct {
	t         *testing.T
	cfg       *config.Config
	db        *gorm.DB
	engine    *gin.Engine
	processor *paymenttest.Processor
	cloud     *cloudinarytest.Client
}

func newTestEnv(t *testing.T, processor payment.Processor) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server:     config.ServerConfig{Env: "test", BaseURL: "https://studynest.example"},
		JWT:        config.JWTConfig{Secret: "router-secret", Audience: "authenticated"},
		Stripe:     config.StripeConfig{Currency: "gbp"},
		Cloudinary: config.CloudinaryConfig{Folder: "StudyNest"},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type", "stripe-signature"},
		},
	}
	env := &testEnv{t: t, cfg: cfg, db: testutil.NewDB(t), cloud: cloudinarytest.New()}
	if processor == nil {
		env.processor = paymenttest.New()
		processor = env.processor
	}
	reg := prometheus.NewRegistry()
	env.engine = Setup(Deps{
		Config:    cfg,
		DB:        env.db,
		Logger:    zap.NewNop(),
		Processor: processor,
		Cloud:     env.cloud,
		Metrics:   metrics.New("studynest", reg),
		Gatherer:  reg,
		Hub:       ws.NewHub(),
	})
	return env
}

func (e *testEnv) token(userID string) string {
	tok, err := auth.SignToken(&e.cfg.JWT, userID, userID+"@example.com", time.Hour)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(userID))
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) profile(userID, role string) {
	w := e.do(http.MethodPost, "/api/v1/me/profile", userID, gin.H{"full_name": userID, "role": role})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
}

func (e *testEnv) property(ownerID, rent string) models.Property {
	w := e.do(http.MethodPost, "/api/v1/properties", ownerID, gin.H{
		"title":         "Room in " + ownerID + "'s flat",
		"rent":          rent,
		"location":      "Manchester",
		"bedrooms":      2,
		"bathrooms":     1,
		"property_type": "apartment",
		"amenities":     []string{"wifi"},
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Property
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "studynest_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/payments/rent/checkout", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type,x-client-info,apikey")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-client-info")
}

func TestRentCheckoutEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.profile("owner-1", domain.RolePropertyOwner)
	prop := env.property("owner-1", "800.00")

	w := env.do(http.MethodPost, "/api/v1/payments/rent/checkout", "tenant-1", gin.H{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Property ID is required", body["error"])
	assert.NotEmpty(t, body["details"])

	w = env.do(http.MethodPost, "/api/v1/payments/rent/checkout", "", gin.H{"propertyId": prop.ID})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Authorization header is required", decode(t, w)["error"])

	w = env.do(http.MethodPost, "/api/v1/payments/rent/checkout", "tenant-1", gin.H{"propertyId": "nope"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Property not found")

	w = env.do(http.MethodPost, "/api/v1/payments/rent/checkout", "tenant-1", gin.H{"propertyId": prop.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://checkout.example/cs_test_1", decode(t, w)["url"])
	require.Len(t, env.processor.Checkouts, 1)
	assert.Equal(t, int64(80000), env.processor.Checkouts[0].UnitAmount)
	assert.Equal(t, "https://studynest.example/", env.processor.Checkouts[0].CancelURL)

	require.NoError(t, repository.NewRentPaymentRepository(env.db).Upsert(context.Background(), &models.RentPayment{
		PropertyID: prop.ID, TenantID: "tenant-1", StripeSubscriptionID: "sub_1",
		MonthlyRent: 80000, Status: domain.RentPaymentActive,
	}))
	w = env.do(http.MethodPost, "/api/v1/payments/rent/checkout", "tenant-1", gin.H{"propertyId": prop.ID})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "already have an active subscription")
	assert.Equal(t, 1, env.processor.CheckoutCount())

	w = env.do(http.MethodGet, "/api/v1/me/rent-payments", "tenant-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["rent_payments"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, prop.Title, list[0].(map[string]interface{})["property"].(map[string]interface{})["title"])
}

func TestRentPortalAndVerify(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/v1/payments/rent/portal", "tenant-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.processor.Customers["tenant-1@example.com"] = payment.Customer{ID: "cus_9"}
	w = env.do(http.MethodPost, "/api/v1/payments/rent/portal", "tenant-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://billing.example/session/cus_9", decode(t, w)["url"])

	env.processor.Sessions["cs_1"] = &payment.CheckoutSession{
		ID: "cs_1", Status: "complete", PaymentStatus: "paid", SubscriptionID: "sub_1",
		Metadata: map[string]string{"tenant_id": "tenant-1", "property_id": "p"},
	}
	w = env.do(http.MethodPost, "/api/v1/payments/rent/verify", "tenant-1", gin.H{"sessionId": "cs_1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = env.do(http.MethodPost, "/api/v1/payments/rent/verify", "tenant-2", gin.H{"sessionId": "cs_1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/v1/payments/rent/verify", "tenant-1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func signedWebhook(env *testEnv, payload string, secret string) *httptest.ResponseRecorder {
	now := time.Now()
	sig := webhook.ComputeSignature(now, []byte(payload), secret)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func subscriptionPayload(eventID, eventType string, created int64, propertyID, status string) string {
	return fmt.Sprintf(`{
		"id": %q, "object": "event", "type": %q, "created": %d,
		"data": {"object": {
			"id": "sub_1", "object": "subscription", "customer": "cus_1", "status": %q,
			"metadata": {"property_id": %q, "tenant_id": "tenant-1"},
			"items": {"object": "list", "data": [{
				"id": "si_1", "object": "subscription_item",
				"price": {"id": "price_1", "object": "price", "unit_amount": 80000},
				"current_period_start": 1767225600, "current_period_end": 1769904000
			}]}
		}}
	}`, eventID, eventType, created, status, propertyID)
}

func TestStripeWebhookEndpoint(t *testing.T) {
	env := newTestEnv(t, payment.NewStripeProcessor("sk_test_unused", webhookSecret, nil))
	env.profile("owner-1", domain.RolePropertyOwner)
	prop := env.property("owner-1", "800")
	rentPayments := repository.NewRentPaymentRepository(env.db)
	properties := repository.NewPropertyRepository(env.db)
	ctx := context.Background()
	created := time.Now().Unix()

	payload := subscriptionPayload("evt_1", "customer.subscription.created", created, prop.ID, "active")

	w := signedWebhook(env, payload, "whsec_wrong")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid signature"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(payload))
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rp, err := rentPayments.GetByPropertyTenant(ctx, prop.ID, "tenant-1")
	require.NoError(t, err)
	assert.Nil(t, rp)

	w = signedWebhook(env, payload, webhookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	rp, err = rentPayments.GetByPropertyTenant(ctx, prop.ID, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, rp)
	assert.Equal(t, domain.RentPaymentActive, rp.Status)
	assert.Equal(t, int64(80000), rp.MonthlyRent)
	p, err := properties.GetByID(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusRented, p.Status)

	// redelivery is harmless
	w = signedWebhook(env, payload, webhookSecret)
	assert.Equal(t, http.StatusOK, w.Code)

	invoice := fmt.Sprintf(`{"id":"evt_2","object":"event","type":"invoice.payment_failed","created":%d,
		"data":{"object":{"id":"in_1","object":"invoice","customer":"cus_1","subscription":"sub_unknown"}}}`, created+1)
	w = signedWebhook(env, invoice, webhookSecret)
	assert.Equal(t, http.StatusOK, w.Code)

	deleted := subscriptionPayload("evt_3", "customer.subscription.deleted", created+2, prop.ID, "canceled")
	w = signedWebhook(env, deleted, webhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	rp, err = rentPayments.GetByPropertyTenant(ctx, prop.ID, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RentPaymentCancelled, rp.Status)
	p, err = properties.GetByID(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusAvailable, p.Status)

	ev, err := repository.NewWebhookEventRepository(env.db).Get(ctx, "stripe", "evt_3")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "customer.subscription.deleted", ev.EventType)
}

func TestPropertyOwnerFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.profile("owner-1", domain.RolePropertyOwner)
	env.profile("owner-2", domain.RolePropertyOwner)
	env.profile("student-1", domain.RoleStudent)

	w := env.do(http.MethodPost, "/api/v1/properties", "student-1", gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(http.MethodPost, "/api/v1/properties", "owner-1", gin.H{
		"title": "Bad", "rent": 0, "location": "Leeds", "property_type": "apartment",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cheap := env.property("owner-1", "450")
	pricey := env.property("owner-2", "1200.50")
	assert.Equal(t, domain.PropertyStatusAvailable, cheap.Status)
	assert.True(t, pricey.Rent.Equal(decimal.RequireFromString("1200.50")))

	update := gin.H{"title": "Stolen", "rent": "1", "location": "x", "property_type": "studio"}
	w = env.do(http.MethodPut, "/api/v1/properties/"+cheap.ID, "owner-2", update)
	assert.Equal(t, http.StatusForbidden, w.Code)

	update = gin.H{"title": "Renovated room", "rent": "500", "location": "Manchester", "property_type": "studio", "bedrooms": 1}
	w = env.do(http.MethodPut, "/api/v1/properties/"+cheap.ID, "owner-1", update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renovated room", decode(t, w)["title"])

	update["status"] = domain.PropertyStatusRented
	w = env.do(http.MethodPut, "/api/v1/properties/"+cheap.ID, "owner-1", update)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/properties?max_rent=600", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["total"])

	w = env.do(http.MethodGet, "/api/v1/properties?q=renovated&property_type=studio", "", nil)
	assert.Equal(t, float64(1), decode(t, w)["total"])
	w = env.do(http.MethodGet, "/api/v1/properties?bedrooms=2", "", nil)
	assert.Equal(t, float64(1), decode(t, w)["total"])
	w = env.do(http.MethodGet, "/api/v1/properties?min_rent=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/properties/"+pricey.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/v1/properties/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/me/properties", "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	// image upload and removal
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "room.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/"+cheap.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token("owner-1"))
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	url := decode(t, rec)["url"].(string)
	assert.Contains(t, url, "StudyNest/properties/"+cheap.ID+"/img_")

	w = env.do(http.MethodDelete, "/api/v1/properties/"+cheap.ID+"/images", "owner-1", gin.H{"url": "https://nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodDelete, "/api/v1/properties/"+cheap.ID+"/images", "owner-1", gin.H{"url": url})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{url}, env.cloud.Deleted)

	// an active subscription blocks deletion
	require.NoError(t, repository.NewRentPaymentRepository(env.db).Upsert(context.Background(), &models.RentPayment{
		PropertyID: pricey.ID, TenantID: "student-1", StripeSubscriptionID: "sub_1",
		MonthlyRent: 120050, Status: domain.RentPaymentActive,
	}))
	w = env.do(http.MethodDelete, "/api/v1/properties/"+pricey.ID, "owner-2", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodDelete, "/api/v1/properties/"+cheap.ID, "owner-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/v1/properties/"+cheap.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/v1/me/profile", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodPost, "/api/v1/me/profile", "user-1", gin.H{"role": "landlord"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodGet, "/api/v1/me/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env.profile("user-1", domain.RoleStudent)
	w = env.do(http.MethodPost, "/api/v1/me/profile", "user-1", gin.H{"role": domain.RoleStudent})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/me/profile", "user-1", gin.H{"phone": " 07700 900000 ", "role": domain.RolePropertyOwner})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "07700 900000", body["phone"])
	assert.Equal(t, domain.RoleStudent, body["role"])
}

func TestInquiryAndNotificationFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.profile("owner-1", domain.RolePropertyOwner)
	env.profile("student-1", domain.RoleStudent)
	prop := env.property("owner-1", "700")

	w := env.do(http.MethodPost, "/api/v1/properties/"+prop.ID+"/inquiries", "owner-1", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/v1/properties/"+prop.ID+"/inquiries", "student-1", gin.H{"message": "Can I view it?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inquiryID := decode(t, w)["id"].(string)

	w = env.do(http.MethodGet, "/api/v1/inquiries/"+inquiryID+"/messages", "stranger", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/v1/inquiries/"+inquiryID+"/messages", "owner-1", gin.H{"message": "Sure, Friday?"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/api/v1/me/inquiries", "student-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["inquiries"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, domain.InquiryResponded, list[0].(map[string]interface{})["status"])

	w = env.do(http.MethodGet, "/api/v1/inquiries/"+inquiryID+"/messages", "student-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 2)

	w = env.do(http.MethodPatch, "/api/v1/inquiries/"+inquiryID+"/status", "student-1", gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPatch, "/api/v1/inquiries/"+inquiryID+"/status", "student-1", gin.H{"status": domain.InquiryClosed})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/me/notifications", "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notifs := decode(t, w)["notifications"].([]interface{})
	require.Len(t, notifs, 1)
	notifID := notifs[0].(map[string]interface{})["id"].(string)

	w = env.do(http.MethodPut, "/api/v1/me/notifications/"+notifID+"/read", "student-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodPut, "/api/v1/me/notifications/"+notifID+"/read", "owner-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutIgnoresUnlistedOrigin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.profile("owner-1", domain.RolePropertyOwner)
	prop := env.property("owner-1", "650")

	raw, err := json.Marshal(gin.H{"propertyId": prop.ID})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/rent/checkout", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token("tenant-1"))
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, env.processor.Checkouts, 1)
	assert.Equal(t, "https://studynest.example/", env.processor.Checkouts[0].CancelURL)
	assert.True(t, strings.HasPrefix(env.processor.Checkouts[0].SuccessURL, "https://studynest.example/rent-payment-success"))
}

func TestPropertyEditKeepsRentedStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	env.profile("owner-1", domain.RolePropertyOwner)
	prop := env.property("owner-1", "700")
	ctx := context.Background()

	require.NoError(t, repository.NewRentPaymentRepository(env.db).Upsert(ctx, &models.RentPayment{
		PropertyID: prop.ID, TenantID: "student-1", StripeSubscriptionID: "sub_1",
		MonthlyRent: 70000, Status: domain.RentPaymentActive,
	}))
	_, err := repository.NewPropertyRepository(env.db).SetStatus(ctx, prop.ID, domain.PropertyStatusRented)
	require.NoError(t, err)

	update := gin.H{"title": "Freshly painted", "rent": "700", "location": "Manchester", "property_type": "apartment"}
	w := env.do(http.MethodPut, "/api/v1/properties/"+prop.ID, "owner-1", update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Freshly painted", body["title"])
	assert.Equal(t, domain.PropertyStatusRented, body["status"])

	update["status"] = domain.PropertyStatusAvailable
	w = env.do(http.MethodPut, "/api/v1/properties/"+prop.ID, "owner-1", update)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodGet, "/api/v1/properties/"+prop.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PropertyStatusRented, decode(t, w)["status"])
}

func TestPropertyOwnerSetsPending(t *testing.T) {
	env := newTestEnv(t, nil)
	env.profile("owner-1", domain.RolePropertyOwner)
	prop := env.property("owner-1", "700")

	w := env.do(http.MethodPut, "/api/v1/properties/"+prop.ID, "owner-1", gin.H{
		"title": prop.Title, "rent": "700", "location": "Manchester", "property_type": "apartment",
		"status": domain.PropertyStatusPending,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.PropertyStatusPending, decode(t, w)["status"])
}
