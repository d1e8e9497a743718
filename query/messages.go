package query

import (
	"strings"

	"github.com/goliatone/go-quality-hooks/core"
)

const (
	TypeGetDelivery    = "quality_hooks.query.delivery.get"
	TypeListDeliveries = "quality_hooks.query.deliveries.list"
)

type GetDeliveryMessage struct {
	DeliveryID string
}

func (GetDeliveryMessage) Type() string { return TypeGetDelivery }

func (m GetDeliveryMessage) Validate() error {
	if strings.TrimSpace(m.DeliveryID) == "" {
		return queryValidationError("delivery_id", "delivery id is required")
	}
	return nil
}

// ListDeliveriesMessage lists the history of a project or of a single task.
type ListDeliveriesMessage struct {
	Filter core.DeliveryFilter
}

func (ListDeliveriesMessage) Type() string { return TypeListDeliveries }

func (m ListDeliveriesMessage) Validate() error {
	if strings.TrimSpace(m.Filter.ProjectUUID) == "" && strings.TrimSpace(m.Filter.CeTaskUUID) == "" {
		return queryValidationError("project_uuid", "project uuid or ce task uuid is required")
	}
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	return nil
}
