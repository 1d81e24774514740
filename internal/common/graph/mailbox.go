// Package graph reads the robot's request folder through Microsoft Graph.
package graph

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	apphttp "eflyt-phone-lookup/internal/common/http"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/models"
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	fileAttachmentType = "#microsoft.graph.fileAttachment"
	pageSize           = 50
)

type Mailbox struct {
	client  *apphttp.Client
	baseURL string
	user    string
	folder  string
	logger  logger.Logger

	mu       sync.Mutex
	folderID string
}

// NewMailbox reads messages in folder, a "/"-separated display-name path
// such as "Indbakke/Eflyt udsøgning af telefonnumre", of user's mailbox.
func NewMailbox(client *apphttp.Client, baseURL, user, folder string, log logger.Logger) *Mailbox {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Mailbox{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		user:    user,
		folder:  folder,
		logger:  log.Named("graph"),
	}
}

type mailFolder struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type folderPage struct {
	Value    []mailFolder `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

type message struct {
	ID               string    `json:"id"`
	Subject          string    `json:"subject"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	Body             struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

type messagePage struct {
	Value    []message `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

type attachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type attachmentPage struct {
	Value []attachment `json:"value"`
}

func (m *Mailbox) userURL() string {
	return m.baseURL + "/users/" + url.PathEscape(m.user)
}

// Messages lists the folder oldest first with plain-text bodies.
func (m *Mailbox) Messages(ctx context.Context) ([]models.InboundMessage, error) {
	folderID, err := m.resolveFolder(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("$orderby", "receivedDateTime asc")
	q.Set("$select", "id,subject,body,receivedDateTime")
	q.Set("$top", fmt.Sprint(pageSize))
	next := fmt.Sprintf("%s/mailFolders/%s/messages?%s", m.userURL(), url.PathEscape(folderID), q.Encode())

	headers := map[string]string{"Prefer": `outlook.body-content-type="text"`}

	var out []models.InboundMessage
	for next != "" {
		var page messagePage
		if err := m.client.GetJSON(ctx, next, headers, &page); err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, msg := range page.Value {
			out = append(out, models.InboundMessage{
				Handle:     models.SourceHandle(msg.ID),
				Subject:    msg.Subject,
				Body:       msg.Body.Content,
				ReceivedAt: msg.ReceivedDateTime,
			})
		}
		next = page.NextLink
	}

	m.logger.Debug("Listed messages", map[string]interface{}{"folder": m.folder, "count": len(out)})
	return out, nil
}

// Attachments returns the file attachments of msg. Item and reference
// attachments are skipped.
func (m *Mailbox) Attachments(ctx context.Context, msg models.InboundMessage) ([]models.Attachment, error) {
	u := fmt.Sprintf("%s/messages/%s/attachments", m.userURL(), url.PathEscape(string(msg.Handle)))

	var page attachmentPage
	if err := m.client.GetJSON(ctx, u, nil, &page); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	var out []models.Attachment
	for _, a := range page.Value {
		if a.ODataType != "" && a.ODataType != fileAttachmentType {
			m.logger.Debug("Skipping non-file attachment", map[string]interface{}{"name": a.Name, "type": a.ODataType})
			continue
		}
		content, err := base64.StdEncoding.DecodeString(a.ContentBytes)
		if err != nil {
			return nil, fmt.Errorf("decode attachment %s: %w", a.Name, err)
		}
		out = append(out, models.Attachment{
			Filename:    a.Name,
			ContentType: a.ContentType,
			Content:     content,
		})
	}
	return out, nil
}

// Discard deletes the message. Graph moves it to Deleted Items.
func (m *Mailbox) Discard(ctx context.Context, handle models.SourceHandle) error {
	u := fmt.Sprintf("%s/messages/%s", m.userURL(), url.PathEscape(string(handle)))
	if err := m.client.Delete(ctx, u); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	m.logger.Info("Request message discarded", map[string]interface{}{"message": string(handle)})
	return nil
}

func (m *Mailbox) resolveFolder(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.folderID != "" {
		return m.folderID, nil
	}

	parts := strings.Split(strings.Trim(m.folder, "/"), "/")
	list := m.userURL() + "/mailFolders"
	var id string
	for i, name := range parts {
		folder, err := m.findChild(ctx, list, name)
		if err != nil {
			return "", err
		}
		id = folder.ID
		if i < len(parts)-1 {
			list = fmt.Sprintf("%s/mailFolders/%s/childFolders", m.userURL(), url.PathEscape(id))
		}
	}

	m.folderID = id
	m.logger.Debug("Resolved folder", map[string]interface{}{"folder": m.folder, "id": id})
	return id, nil
}

func (m *Mailbox) findChild(ctx context.Context, list, name string) (mailFolder, error) {
	q := url.Values{}
	q.Set("$top", "100")
	q.Set("$select", "id,displayName")
	next := list + "?" + q.Encode()

	for next != "" {
		var page folderPage
		if err := m.client.GetJSON(ctx, next, nil, &page); err != nil {
			return mailFolder{}, fmt.Errorf("list folders: %w", err)
		}
		for _, f := range page.Value {
			if strings.EqualFold(f.DisplayName, name) {
				return f, nil
			}
		}
		next = page.NextLink
	}
	return mailFolder{}, fmt.Errorf("folder %q not found in %s", name, m.folder)
}
