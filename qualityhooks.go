package qualityhooks

import "github.com/goliatone/go-quality-hooks/core"

type Config = core.Config

type WebhooksConfig = core.WebhooksConfig

type ServerConfig = core.ServerConfig

type ProjectAnalysisEvent = core.ProjectAnalysisEvent

type Analysis = core.Analysis

type Webhook = core.Webhook

type WebhookDelivery = core.WebhookDelivery

type DeliveryRecord = core.DeliveryRecord

type DeliveryFilter = core.DeliveryFilter

type DeliveryPage = core.DeliveryPage

func DefaultConfig() Config {
	return core.DefaultConfig()
}
