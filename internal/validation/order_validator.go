package validation

import (
	"math"
	"regexp"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
)

type OrderValidator interface {
	ValidateLineItems(items []models.LineItem) ([]models.LineItem, error)
	ValidateContact(contact models.Contact) error
}

type LineItemValidator struct {
	phoneRegex *regexp.Regexp
}

func NewLineItemValidator() *LineItemValidator {
	return &LineItemValidator{
		phoneRegex: regexp.MustCompile(`^\+?[0-9()\- ]{5,20}$`),
	}
}

// ValidateLineItems checks ids and quantities and merges repeated products,
// keeping first-seen order. Unit prices are dropped.
func (v *LineItemValidator) ValidateLineItems(items []models.LineItem) ([]models.LineItem, error) {
	if len(items) == 0 {
		return nil, apperrors.Validation("order must contain at least one line item")
	}

	merged := make([]models.LineItem, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if item.ProductID <= 0 {
			return nil, apperrors.Validation("invalid product id %d", item.ProductID)
		}
		if item.Quantity < 1 {
			return nil, apperrors.Validation("quantity of product %d must be at least 1", item.ProductID)
		}
		if i, ok := index[item.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt32-item.Quantity {
				return nil, apperrors.Validation("quantity of product %d is too large", item.ProductID)
			}
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, models.LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return merged, nil
}

func (v *LineItemValidator) ValidateContact(contact models.Contact) error {
	if phone := strings.TrimSpace(contact.PhoneNumber); phone != "" && !v.phoneRegex.MatchString(phone) {
		return apperrors.Validation("invalid phone number %q", contact.PhoneNumber)
	}
	if (contact.Latitude == nil) != (contact.Longitude == nil) {
		return apperrors.Validation("latitude and longitude must be given together")
	}
	if contact.Latitude != nil && (*contact.Latitude < -90 || *contact.Latitude > 90) {
		return apperrors.Validation("latitude %v is out of range", *contact.Latitude)
	}
	if contact.Longitude != nil && (*contact.Longitude < -180 || *contact.Longitude > 180) {
		return apperrors.Validation("longitude %v is out of range", *contact.Longitude)
	}
	return nil
}
