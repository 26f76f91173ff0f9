package filesvc

import (
	"time"

	"github.com/dmitrymomot/filesvc/internal/events"
	"github.com/dmitrymomot/filesvc/internal/metadata"
)

func addedPayload(rec *metadata.Record) events.FileAdded {
	return events.FileAdded{
		FileID:    rec.ID.String(),
		OwnerID:   rec.OwnerID,
		ChannelID: rec.ChannelID,
		ThreadID:  rec.ThreadID,
		MessageID: rec.MessageID,
		Filename:  rec.Filename,
		MIMEType:  rec.MIMEType,
		Size:      rec.Size,
		SHA256:    rec.SHA256,
		CreatedAt: rec.CreatedAt,
	}
}

func deletedPayload(rec *metadata.Record, by string, at time.Time) events.FileDeleted {
	return events.FileDeleted{
		FileID:    rec.ID.String(),
		ChannelID: rec.ChannelID,
		ThreadID:  rec.ThreadID,
		MessageID: rec.MessageID,
		DeletedBy: by,
		DeletedAt: at,
	}
}
