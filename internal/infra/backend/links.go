package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sifan077/PowerLink/internal/app/model"
)

const linksPath = "/api/links"

// Account is a backend client bound to one user's bearer token.
type Account struct {
	client *Client
	token  string
}

// FetchLinks returns every link of the account owner, in backend order.
func (a *Account) FetchLinks(ctx context.Context) ([]model.Link, error) {
	var raw json.RawMessage
	if err := a.client.do(ctx, request{
		op:     "fetch_links",
		method: http.MethodGet,
		path:   linksPath,
		token:  a.token,
	}, &raw); err != nil {
		return nil, err
	}
	return decodeLinks(raw)
}

// CreateLink creates a link and returns the stored record with its backend id.
func (a *Account) CreateLink(ctx context.Context, draft model.LinkDraft) (*model.Link, error) {
	f := newForm().
		field("title", draft.Title).
		field("url", draft.URL).
		field("order", strconv.Itoa(draft.Order)).
		field("is_active", boolField(draft.IsActive))
	if draft.Description != nil && *draft.Description != "" {
		f.field("description", *draft.Description)
	}
	f.file("icon", draft.Icon)

	body, contentType, err := f.finish()
	if err != nil {
		return nil, fmt.Errorf("backend: encode create_link: %w", err)
	}

	var link model.Link
	if err := a.client.do(ctx, request{
		op:          "create_link",
		method:      http.MethodPost,
		path:        linksPath,
		token:       a.token,
		body:        body,
		contentType: contentType,
	}, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateLink sends only the fields present in patch.
func (a *Account) UpdateLink(ctx context.Context, id int64, patch model.LinkPatch) (*model.Link, error) {
	f := newForm().patch()
	if patch.Title != nil {
		f.field("title", *patch.Title)
	}
	if patch.URL != nil {
		f.field("url", *patch.URL)
	}
	if patch.Order != nil {
		f.field("order", strconv.Itoa(*patch.Order))
	}
	if patch.Description != nil {
		f.field("description", *patch.Description)
	}
	if patch.IsActive != nil {
		f.field("is_active", boolField(*patch.IsActive))
	}
	f.file("icon", patch.Icon)

	body, contentType, err := f.finish()
	if err != nil {
		return nil, fmt.Errorf("backend: encode update_link: %w", err)
	}

	var link model.Link
	if err := a.client.do(ctx, request{
		op:          "update_link",
		method:      http.MethodPost,
		path:        linkPath(id),
		token:       a.token,
		body:        body,
		contentType: contentType,
	}, &link); err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

// DeleteLink removes a link.
func (a *Account) DeleteLink(ctx context.Context, id int64) error {
	return a.client.do(ctx, request{
		op:     "delete_link",
		method: http.MethodDelete,
		path:   linkPath(id),
		token:  a.token,
	}, nil)
}

func linkPath(id int64) string {
	return linksPath + "/" + url.PathEscape(strconv.FormatInt(id, 10))
}

// decodeLinks accepts a bare array or a {"data": [...]} envelope.
func decodeLinks(raw json.RawMessage) ([]model.Link, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []model.Link{}, nil
	}

	var links []model.Link
	if trimmed[0] == '{' {
		var envelope struct {
			Data []model.Link `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("backend: decode links: %w", err)
		}
		links = envelope.Data
	} else if err := json.Unmarshal(trimmed, &links); err != nil {
		return nil, fmt.Errorf("backend: decode links: %w", err)
	}

	if links == nil {
		links = []model.Link{}
	}
	return links, nil
}
