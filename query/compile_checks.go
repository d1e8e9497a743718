package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-quality-hooks/core"
)

var (
	_ gocmd.Querier[GetDeliveryMessage, core.DeliveryRecord]  = (*GetDeliveryQuery)(nil)
	_ gocmd.Querier[ListDeliveriesMessage, core.DeliveryPage] = (*ListDeliveriesQuery)(nil)
)
