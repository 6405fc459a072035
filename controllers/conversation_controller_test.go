package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
)

func seedConversationUsers(t *testing.T, db *gorm.DB) (models.User, models.User, models.User) {
	buyer := models.User{Auth0ID: "auth0|buyer", Name: "Buyer", Email: "buyer@example.com", Role: models.RoleBuyer}
	seller := models.User{Auth0ID: "auth0|seller", Name: "Seller", Email: "seller@example.com", Role: models.RoleSeller}
	admin := models.User{Auth0ID: "auth0|admin", Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	for _, u := range []*models.User{&buyer, &seller, &admin} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("Failed to seed user: %v", err)
		}
	}
	return buyer, seller, admin
}

func seedThread(t *testing.T, db *gorm.DB, buyerID, sellerID uint) models.Conversation {
	t.Helper()
	conv := models.Conversation{
		Type:    models.ConversationGeneralInquiry,
		Subject: "Hello",
		Status:  models.ConversationActive,
	}
	if err := db.Create(&conv).Error; err != nil {
		t.Fatalf("Failed to seed conversation: %v", err)
	}
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: buyerID, Role: models.RoleBuyer})
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: sellerID, Role: models.RoleSeller})
	return conv
}

func TestCreateConversation(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	buyer, seller, _ := seedConversationUsers(t, db)
	product := models.Product{SellerID: seller.ID, Name: "Clay pot", BasePrice: 20, IsActive: true}
	db.Create(&product)

	tests := []struct {
		name           string
		auth0ID        string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:    "Successfully open a product thread",
			auth0ID: buyer.Auth0ID,
			requestBody: map[string]interface{}{
				"type":       "pre_purchase_product",
				"subject":    "Custom glaze",
				"seller_id":  seller.ID,
				"product_id": product.ID,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:    "Fail without subject",
			auth0ID: buyer.Auth0ID,
			requestBody: map[string]interface{}{
				"type":      "pre_purchase_product",
				"seller_id": seller.ID,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with mismatched links",
			auth0ID: buyer.Auth0ID,
			requestBody: map[string]interface{}{
				"type":      "pre_purchase_product",
				"subject":   "No product attached",
				"seller_id": seller.ID,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with unregistered identity",
			auth0ID: "auth0|nobody",
			requestBody: map[string]interface{}{
				"type":       "pre_purchase_product",
				"subject":    "Hi",
				"seller_id":  seller.ID,
				"product_id": product.ID,
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/conversations", mockAuthMiddleware(tt.auth0ID), CreateConversation)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/conversations", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedError != "" {
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	buyer, seller, _ := seedConversationUsers(t, db)
	stranger := models.User{Auth0ID: "auth0|stranger", Name: "Stranger", Email: "stranger@example.com", Role: models.RoleBuyer}
	db.Create(&stranger)
	conv := seedThread(t, db, buyer.ID, seller.ID)

	tests := []struct {
		name           string
		auth0ID        string
		conversationID uint
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name:           "Successfully send a message",
			auth0ID:        buyer.Auth0ID,
			conversationID: conv.ID,
			requestBody: map[string]interface{}{
				"content": "Is this still available?",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(1), data["seq"])
				assert.Equal(t, "Is this still available?", data["content"])
			},
		},
		{
			name:           "Successfully send with attachment",
			auth0ID:        seller.Auth0ID,
			conversationID: conv.ID,
			requestBody: map[string]interface{}{
				"content": "Here is a reference photo",
				"attachments": []map[string]interface{}{
					{"url": "https://cdn.example.com/a.jpg", "filename": "a.jpg", "mime_type": "image/jpeg", "size_bytes": 1024},
				},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(2), data["seq"])
				attachments := data["attachments"].([]interface{})
				assert.Len(t, attachments, 1)
			},
		},
		{
			name:           "Fail as non-participant",
			auth0ID:        stranger.Auth0ID,
			conversationID: conv.ID,
			requestBody: map[string]interface{}{
				"content": "Let me in",
			},
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:           "Fail with empty content",
			auth0ID:        buyer.Auth0ID,
			conversationID: conv.ID,
			requestBody:    map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/conversations/:id/messages", mockAuthMiddleware(tt.auth0ID), SendMessage)

			body, _ := json.Marshal(tt.requestBody)
			url := fmt.Sprintf("/conversations/%d/messages", tt.conversationID)
			req, _ := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedError != "" {
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestSendMessageClosedThread(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	buyer, seller, admin := seedConversationUsers(t, db)
	conv := seedThread(t, db, buyer.ID, seller.ID)
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: admin.ID, Role: models.RoleAdmin})
	db.Model(&models.Conversation{}).Where("id = ?", conv.ID).
		Update("status", models.ConversationResolved)

	router := setupTestRouter()
	router.POST("/conversations/:id/messages", mockAuthMiddleware(buyer.Auth0ID), SendMessage)
	body, _ := json.Marshal(map[string]interface{}{"content": "One more question"})
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/conversations/%d/messages", conv.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "CONVERSATION_CLOSED", errorData["code"])

	// Admin still may annotate
	router = setupTestRouter()
	router.POST("/conversations/:id/messages", mockAuthMiddleware(admin.Auth0ID), SendMessage)
	req, _ = http.NewRequest(http.MethodPost, fmt.Sprintf("/conversations/%d/messages", conv.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListMessagesBackfill(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	buyer, seller, _ := seedConversationUsers(t, db)
	conv := seedThread(t, db, buyer.ID, seller.ID)

	sendRouter := setupTestRouter()
	sendRouter.POST("/conversations/:id/messages", mockAuthMiddleware(buyer.Auth0ID), SendMessage)
	for i := 0; i < 3; i++ {
		body, _ := json.Marshal(map[string]interface{}{"content": fmt.Sprintf("message %d", i)})
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/conversations/%d/messages", conv.ID), bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		sendRouter.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	router := setupTestRouter()
	router.GET("/conversations/:id/messages", mockAuthMiddleware(seller.Auth0ID), ListMessages)

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/conversations/%d/messages?after_seq=1", conv.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, float64(2), first["seq"])
}

func TestUpdateConversationStatus(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	buyer, seller, admin := seedConversationUsers(t, db)
	conv := seedThread(t, db, buyer.ID, seller.ID)

	// Non-admin may not move status
	router := setupTestRouter()
	router.PUT("/conversations/:id/status", mockAuthMiddleware(buyer.Auth0ID), UpdateConversationStatus)
	body, _ := json.Marshal(map[string]interface{}{"status": "resolved"})
	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/conversations/%d/status", conv.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin resolves the thread
	router = setupTestRouter()
	router.PUT("/conversations/:id/status", mockAuthMiddleware(admin.Auth0ID), UpdateConversationStatus)
	req, _ = http.NewRequest(http.MethodPut, fmt.Sprintf("/conversations/%d/status", conv.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "resolved", data["status"])
}

func TestJoinConversationAsAdmin(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	buyer, seller, admin := seedConversationUsers(t, db)
	conv := seedThread(t, db, buyer.ID, seller.ID)

	router := setupTestRouter()
	router.POST("/conversations/:id/join", mockAuthMiddleware(seller.Auth0ID), JoinConversationAsAdmin)
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/conversations/%d/join", conv.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	router = setupTestRouter()
	router.POST("/conversations/:id/join", mockAuthMiddleware(admin.Auth0ID), JoinConversationAsAdmin)
	req, _ = http.NewRequest(http.MethodPost, fmt.Sprintf("/conversations/%d/join", conv.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conv.ID, admin.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}
