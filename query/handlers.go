package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-quality-hooks/core"
)

type GetDeliveryQuery struct {
	reader core.DeliveryReader
}

func NewGetDeliveryQuery(reader core.DeliveryReader) *GetDeliveryQuery {
	return &GetDeliveryQuery{reader: reader}
}

func (q *GetDeliveryQuery) Query(ctx context.Context, msg GetDeliveryMessage) (core.DeliveryRecord, error) {
	if q == nil || q.reader == nil {
		return core.DeliveryRecord{}, queryDependencyError("query: delivery reader is required")
	}
	return q.reader.Get(ctx, strings.TrimSpace(msg.DeliveryID))
}

type ListDeliveriesQuery struct {
	reader core.DeliveryReader
}

func NewListDeliveriesQuery(reader core.DeliveryReader) *ListDeliveriesQuery {
	return &ListDeliveriesQuery{reader: reader}
}

func (q *ListDeliveriesQuery) Query(ctx context.Context, msg ListDeliveriesMessage) (core.DeliveryPage, error) {
	if q == nil || q.reader == nil {
		return core.DeliveryPage{}, queryDependencyError("query: delivery reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}
