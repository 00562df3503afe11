package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/CardAssist/internal/models"
	"github.com/BTreeMap/CardAssist/internal/store"
)

// deliveryStatusMessages maps a delivery status to its customer-facing line.
var deliveryStatusMessages = map[models.DeliveryStatus]string{
	models.DeliveryStatusProcessing: "Your card is being processed and will be shipped soon.",
	models.DeliveryStatusShipped:    "Your card has been shipped.",
	models.DeliveryStatusInTransit:  "Your card is in transit to your address.",
	models.DeliveryStatusDelivered:  "Your card has been delivered.",
}

// DeliveryAgent handles card delivery tracking and address changes.
type DeliveryAgent struct {
	store store.Store
}

// NewDeliveryAgent creates a delivery agent over the given store.
func NewDeliveryAgent(st store.Store) *DeliveryAgent {
	return &DeliveryAgent{store: st}
}

func (a *DeliveryAgent) HandleInformation(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	delivery, err := a.store.GetLatestDelivery(userID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("DeliveryAgent.HandleInformation: %w", err)
	}
	if delivery == nil {
		slog.Debug("DeliveryAgent.HandleInformation: no delivery record", "userID", userID)
		return refuse("I couldn't find any delivery information for your account."), nil
	}

	lower := strings.ToLower(query)
	if containsAny(lower, "track", "status") {
		message, ok := deliveryStatusMessages[delivery.Status]
		if !ok {
			message = fmt.Sprintf("Status: %s", delivery.Status)
		}

		data := map[string]interface{}{
			"tracking_number":    delivery.TrackingNumber,
			"status":             delivery.Status,
			"address":            delivery.Address,
			"estimated_delivery": delivery.EstimatedDelivery,
		}
		if delivery.ActualDelivery != nil {
			data["actual_delivery"] = *delivery.ActualDelivery
		}

		return models.AgentResponse{
			Answer: fmt.Sprintf("%s Tracking number: %s. Delivery address: %s",
				message, delivery.TrackingNumber, delivery.Address),
			Data: data,
		}, nil
	}

	return models.AgentResponse{
		Answer: fmt.Sprintf("Your card delivery status: %s. Tracking: %s", delivery.Status, delivery.TrackingNumber),
		Data: map[string]interface{}{
			"status":          delivery.Status,
			"tracking_number": delivery.TrackingNumber,
		},
	}, nil
}

func (a *DeliveryAgent) HandleAction(ctx context.Context, query, userID string) (models.AgentResponse, error) {
	rules := []rule{
		{
			match: allOf(anyOf("update", "change"), anyOf("address")),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you update your delivery address. This may delay your delivery.",
					RequiresConsent: true,
					Action:          models.ActionUpdateAddress,
					ConsentMessage:  "Do you want to update your delivery address?",
				}, nil
			},
		},
		{
			match: anyOf("reschedule"),
			handle: func(ctx context.Context, query, userID string) (models.AgentResponse, error) {
				return models.AgentResponse{
					Answer:          "I can help you reschedule your card delivery.",
					RequiresConsent: true,
					Action:          models.ActionReschedule,
					ConsentMessage:  "Do you want to reschedule your card delivery?",
				}, nil
			},
		},
	}

	resp, matched, err := evalRules(ctx, rules, query, userID)
	if err != nil {
		return models.AgentResponse{}, err
	}
	if matched {
		return resp, nil
	}
	return clarify("I can help you with delivery-related actions. What would you like to do?", models.ActionDeliveryGeneric), nil
}
