package nats

import (
	"github.com/nats-io/nats.go"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

func Routes(h *handlers.EventHandlers) map[string]nats.MsgHandler {
	return map[string]nats.MsgHandler{
		string(models.EventFileRegistered): h.HandleFileEvent,
		string(models.EventFileUpdated):    h.HandleFileEvent,
		string(models.EventFileDeleted):    h.HandleFileEvent,
	}
}
