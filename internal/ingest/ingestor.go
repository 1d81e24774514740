// Package ingest turns the oldest request message into a work batch.
package ingest

import (
	"context"
	"fmt"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"

	"eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/models"
)

// Source is the folder requests arrive in. Messages are returned oldest first.
type Source interface {
	Messages(ctx context.Context) ([]models.InboundMessage, error)
	Attachments(ctx context.Context, msg models.InboundMessage) ([]models.Attachment, error)
	Discard(ctx context.Context, handle models.SourceHandle) error
}

type Options struct {
	// LegacyDelimited accepts "national-id,case-id" text attachments.
	//
	// Deprecated: XLSX is the production format. This exists for old fixtures.
	LegacyDelimited bool
}

// The address must follow the marker on the same line.
var requesterPattern = regexp.MustCompile(`E-mail:[ \t]*(\S+)`)

type Ingestor struct {
	source Source
	opts   Options
	logger logger.Logger
}

func New(source Source, opts Options, log logger.Logger) *Ingestor {
	return &Ingestor{
		source: source,
		opts:   opts,
		logger: log.Named("ingest"),
	}
}

// Ingest builds a batch from the first message in the source. It returns
// nil, nil when there is nothing to do. The message is left in place.
func (i *Ingestor) Ingest(ctx context.Context) (*models.WorkBatch, error) {
	messages, err := i.source.Messages(ctx)
	if err != nil {
		return nil, errors.NewMailboxError("list messages", err)
	}
	if len(messages) == 0 {
		i.logger.Info("No requests waiting", nil)
		return nil, nil
	}

	msg := messages[0]
	log := i.logger.WithFields(map[string]interface{}{
		"message": string(msg.Handle),
		"subject": msg.Subject,
	})
	if len(messages) > 1 {
		log.Info("Further requests left for later runs", map[string]interface{}{
			"waiting": len(messages) - 1,
		})
	}

	requester, err := ExtractRequester(msg.Body)
	if err != nil {
		return nil, err
	}

	attachments, err := i.source.Attachments(ctx, msg)
	if err != nil {
		return nil, errors.NewMailboxError("list attachments", err)
	}
	if len(attachments) == 0 {
		return nil, errors.NewBusinessRuleError("message "+string(msg.Handle)+" has no attachments", "Request has no attachments")
	}

	store := models.NewRecordStore()
	for _, att := range attachments {
		records, err := i.parse(att)
		if err != nil {
			return nil, err
		}
		log.Debug("Parsed attachment", map[string]interface{}{
			"filename": att.Filename,
			"records":  len(records),
		})
		store.Append(records...)
	}

	log.Info("Request ingested", map[string]interface{}{
		"requester":   requester,
		"attachments": len(attachments),
		"records":     store.Len(),
	})

	return &models.WorkBatch{
		Records:      store,
		Requester:    requester,
		SourceHandle: msg.Handle,
	}, nil
}

func (i *Ingestor) parse(att models.Attachment) ([]*models.WorkRecord, error) {
	switch detectFormat(att) {
	case formatXLSX:
		return ParseXLSX(att.Filename, att.Content)
	case formatDelimited:
		if !i.opts.LegacyDelimited {
			return nil, errors.NewParseError(att.Filename, "delimited attachments are not accepted, send an XLSX file")
		}
		i.logger.Warn("Reading deprecated delimited attachment", map[string]interface{}{
			"filename": att.Filename,
		})
		return ParseDelimited(att.Filename, att.Content)
	default:
		return nil, errors.NewParseError(att.Filename, "unsupported attachment type "+att.ContentType)
	}
}

// ExtractRequester returns the address after the "E-mail:" marker.
func ExtractRequester(body string) (string, error) {
	m := requesterPattern.FindStringSubmatch(body)
	if m == nil {
		return "", errors.NewMissingRequesterError("message body has no \"E-mail:\" marker")
	}
	addr, err := mail.ParseAddress(m[1])
	if err != nil {
		return "", errors.NewMissingRequesterError(fmt.Sprintf("%q after \"E-mail:\" is not an address", m[1]))
	}
	return addr.Address, nil
}

type format int

const (
	formatUnknown format = iota
	formatXLSX
	formatDelimited
)

func detectFormat(att models.Attachment) format {
	ext := strings.ToLower(filepath.Ext(att.Filename))
	ct := strings.ToLower(att.ContentType)

	switch {
	case ext == ".xlsx" || strings.Contains(ct, "spreadsheetml"):
		return formatXLSX
	case ext == ".csv" || ext == ".txt" || strings.HasPrefix(ct, "text/"):
		return formatDelimited
	}
	return formatUnknown
}
