package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"linkgraph/errors"
)

var validate = validator.New()

type connectionRequest struct {
	ReceiverKind string `json:"receiver_kind" validate:"required,oneof=person organization"`
	ReceiverID   string `json:"receiver_id" validate:"required"`
}

type completeRequest struct {
	RelatedID string `json:"related_id" validate:"required"`
}

type sendMessageRequest struct {
	ReceiverKind string   `json:"receiver_kind" validate:"required,oneof=person organization"`
	ReceiverID   string   `json:"receiver_id" validate:"required"`
	Content      string   `json:"content"`
	Attachments  []string `json:"attachments" validate:"omitempty,dive,url"`
}

// decode unmarshals and validates a request body against its struct tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", errors.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}
