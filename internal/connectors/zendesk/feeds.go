package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
)

var (
	_ driven.ChangeFeed = (*listFeed)(nil)
	_ driven.ChangeFeed = (*singleFeed)(nil)
	_ driven.ChildFeed  = (*childFeed)(nil)
)

// listFeed pages through a collection endpoint by page number.
type listFeed struct {
	client  *Client
	def     *streamDef
	perPage int
}

// Fetch reads the page named by the cursor.
func (f *listFeed) Fetch(ctx context.Context, req domain.SyncRequest) (*domain.SyncPage, error) {
	return fetchPage(ctx, f.client, f.def, f.def.path, f.perPage, req.Cursor, nil)
}

// Commit is a no-op: list endpoints need no acknowledgement.
func (f *listFeed) Commit(context.Context, domain.SyncRequest, *domain.SyncPage) error {
	return nil
}

// singleFeed reads one object as a one-record page.
type singleFeed struct {
	client *Client
	def    *streamDef
}

// Fetch reads the object. The page is always final.
func (f *singleFeed) Fetch(ctx context.Context, _ domain.SyncRequest) (*domain.SyncPage, error) {
	env, err := f.client.GetOne(ctx, f.def.path)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", f.def.name, err)
	}
	page := &domain.SyncPage{}
	if env.Data != nil {
		page.Records = []domain.ChangeRecord{snapshot(env.Meta.Type, env.Data)}
	}
	return page, nil
}

// Commit is a no-op.
func (f *singleFeed) Commit(context.Context, domain.SyncRequest, *domain.SyncPage) error {
	return nil
}

// childFeed pages through a collection scoped to one parent record.
type childFeed struct {
	client  *Client
	def     *streamDef
	perPage int
}

// Fetch reads one page of the children of the partition's parent.
func (f *childFeed) Fetch(ctx context.Context, req domain.SyncRequest) (*domain.SyncPage, error) {
	parentID, ok := req.Partition[f.def.partitionKey]
	if !ok || parentID == nil {
		return nil, fmt.Errorf("stream %s: %w: %s", f.def.name, ErrMissingPartition, f.def.partitionKey)
	}
	path := fmt.Sprintf(f.def.path, url.PathEscape(fmt.Sprint(parentID)))

	inject := func(fields map[string]any) {
		if f.def.renameID != "" {
			if id, ok := fields["id"]; ok {
				fields[f.def.renameID] = id
				delete(fields, "id")
			}
		}
		fields[f.def.partitionKey] = parentID
	}
	return fetchPage(ctx, f.client, f.def, path, f.perPage, req.Cursor, inject)
}

// Commit is a no-op.
func (f *childFeed) Commit(context.Context, domain.SyncRequest, *domain.SyncPage) error {
	return nil
}

// Partition derives the child request scope from a parent record.
func (f *childFeed) Partition(parent domain.ChangeRecord) (domain.Partition, bool) {
	id, ok := parent.Fields["id"]
	if !ok || id == nil {
		return nil, false
	}
	return domain.Partition{f.def.partitionKey: id}, true
}

// fetchPage reads one page of a list endpoint and maps it to a SyncPage.
// The returned cursor names the following page; it is empty on the last page.
func fetchPage(ctx context.Context, client *Client, def *streamDef, path string, perPage int,
	cursor string, transform func(map[string]any)) (*domain.SyncPage, error) {
	cur, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", def.name, err)
	}

	env, err := client.ListPage(ctx, path, cur.Page, perPage, def.query)
	if err != nil {
		return nil, fmt.Errorf("stream %s: page %d: %w", def.name, cur.Page, err)
	}

	page := &domain.SyncPage{
		Records: make([]domain.ChangeRecord, 0, len(env.Items)),
		More:    env.Meta.Links.NextPage != "",
	}
	for _, item := range env.Items {
		if item.Data == nil {
			continue
		}
		if transform != nil {
			transform(item.Data)
		}
		page.Records = append(page.Records, snapshot(item.Meta.Type, item.Data))
	}
	if page.More {
		page.NextCursor = cur.Next().Encode()
	}
	return page, nil
}

func snapshot(resource string, fields map[string]any) domain.ChangeRecord {
	return domain.ChangeRecord{
		Type:     domain.ChangeSnapshot,
		Resource: resource,
		Fields:   fields,
	}
}

// recordID renders a record id for logs.
func recordID(fields map[string]any) string {
	switch id := fields["id"].(type) {
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
