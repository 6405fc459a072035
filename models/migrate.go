package models

// All returns every model registered for auto-migration, leaves first so
// foreign keys resolve in order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&ProductVariant{},
		&Service{},
		&ServicePackage{},
		&Conversation{},
		&ConversationParticipant{},
		&Message{},
		&Attachment{},
		&Quote{},
		&DesignApproval{},
		&DesignFile{},
		&Order{},
		&Booking{},
		&ReturnRequest{},
		&ReturnEvidence{},
		&BoostPackage{},
		&BoostPurchase{},
		&BoostedItem{},
		&Notification{},
		&CommissionEntry{},
	}
}
