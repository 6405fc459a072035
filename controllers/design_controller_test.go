package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
)

func TestDesignApprovalOverHTTP(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	buyer, seller, _ := seedConversationUsers(t, db)
	product := models.Product{SellerID: seller.ID, Name: "Engraved ring", BasePrice: 120, IsActive: true}
	db.Create(&product)

	conv := models.Conversation{Type: models.ConversationPrePurchaseProduct, Subject: "Engraving", Status: models.ConversationActive}
	db.Create(&conv)
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: buyer.ID, Role: models.RoleBuyer})
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: seller.ID, Role: models.RoleSeller})

	submitRouter := setupTestRouter()
	submitRouter.POST("/designs", mockAuthMiddleware(buyer.Auth0ID), SubmitDesign)
	w := performJSON(submitRouter, http.MethodPost, "/designs", map[string]interface{}{
		"conversation_id": conv.ID,
		"product_id":      product.ID,
		"files": []map[string]interface{}{
			{"url": "https://cdn.example.com/sketch-1.png", "filename": "sketch-1.png"},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	designID := uint(data["id"].(float64))

	// No files fails binding outright
	w = performJSON(submitRouter, http.MethodPost, "/designs", map[string]interface{}{
		"conversation_id": conv.ID,
		"product_id":      product.ID,
		"files":           []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Sellers cannot submit designs
	sellerSubmit := setupTestRouter()
	sellerSubmit.POST("/designs", mockAuthMiddleware(seller.Auth0ID), SubmitDesign)
	w = performJSON(sellerSubmit, http.MethodPost, "/designs", map[string]interface{}{
		"conversation_id": conv.ID,
		"product_id":      product.ID,
		"files": []map[string]interface{}{
			{"url": "https://cdn.example.com/x.png", "filename": "x.png"},
		},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owning seller asks for changes with notes
	changesRouter := setupTestRouter()
	changesRouter.POST("/designs/:id/request-changes", mockAuthMiddleware(seller.Auth0ID), RequestDesignChanges)
	w = performJSON(changesRouter, http.MethodPost, fmt.Sprintf("/designs/%d/request-changes", designID), map[string]interface{}{
		"seller_notes": "Use a thinner band",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(t, w)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, "changes_requested", data["to_state"])

	var reloaded models.DesignApproval
	db.First(&reloaded, designID)
	if assert.NotNil(t, reloaded.SellerNotes) {
		assert.Equal(t, "Use a thinner band", *reloaded.SellerNotes)
	}

	// Buyer resubmits, seller approves the second round
	w = performJSON(submitRouter, http.MethodPost, "/designs", map[string]interface{}{
		"conversation_id": conv.ID,
		"product_id":      product.ID,
		"files": []map[string]interface{}{
			{"url": "https://cdn.example.com/sketch-2.png", "filename": "sketch-2.png"},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	response = decodeBody(t, w)
	secondID := uint(response["data"].(map[string]interface{})["id"].(float64))

	approveRouter := setupTestRouter()
	approveRouter.POST("/designs/:id/approve", mockAuthMiddleware(seller.Auth0ID), ApproveDesign)
	w = performJSON(approveRouter, http.MethodPost, fmt.Sprintf("/designs/%d/approve", secondID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(t, w)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, "approved", data["to_state"])

	// A third submission is blocked while an approved one stands
	w = performJSON(submitRouter, http.MethodPost, "/designs", map[string]interface{}{
		"conversation_id": conv.ID,
		"product_id":      product.ID,
		"files": []map[string]interface{}{
			{"url": "https://cdn.example.com/sketch-3.png", "filename": "sketch-3.png"},
		},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDesignDecisionAuthorization(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{CommissionRate: 0.10})
	buyer, seller, _ := seedConversationUsers(t, db)
	product := models.Product{SellerID: seller.ID, Name: "Ring", BasePrice: 50, IsActive: true}
	db.Create(&product)

	conv := models.Conversation{Type: models.ConversationPrePurchaseProduct, Subject: "x", Status: models.ConversationActive}
	db.Create(&conv)
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: buyer.ID, Role: models.RoleBuyer})
	db.Create(&models.ConversationParticipant{ConversationID: conv.ID, UserID: seller.ID, Role: models.RoleSeller})

	productID := product.ID
	approval := models.DesignApproval{
		ConversationID: conv.ID,
		ProductID:      &productID,
		BuyerID:        buyer.ID,
		Status:         models.DesignPending,
	}
	db.Create(&approval)

	// Buyers cannot decide on their own submission
	router := setupTestRouter()
	router.POST("/designs/:id/approve", mockAuthMiddleware(buyer.Auth0ID), ApproveDesign)
	w := performJSON(router, http.MethodPost, fmt.Sprintf("/designs/%d/approve", approval.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "ACTOR_NOT_AUTHORIZED", response["error"].(map[string]interface{})["code"])

	// Participants can read the submission, outsiders cannot
	getRouter := setupTestRouter()
	getRouter.GET("/designs/:id", mockAuthMiddleware(buyer.Auth0ID), GetDesign)
	w = performJSON(getRouter, http.MethodGet, fmt.Sprintf("/designs/%d", approval.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	outsider := models.User{Auth0ID: "auth0|nosy", Name: "Nosy", Email: "nosy@example.com", Role: models.RoleSeller}
	db.Create(&outsider)
	outsiderRouter := setupTestRouter()
	outsiderRouter.GET("/designs/:id", mockAuthMiddleware(outsider.Auth0ID), GetDesign)
	w = performJSON(outsiderRouter, http.MethodGet, fmt.Sprintf("/designs/%d", approval.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
