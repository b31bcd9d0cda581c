package zendesk

import (
	"net/url"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// feedKind selects how a stream is read.
type feedKind int

const (
	// kindList pages through a collection endpoint.
	kindList feedKind = iota

	// kindSingle reads one object, such as the account.
	kindSingle

	// kindChild pages through a collection scoped to a parent record.
	kindChild

	// kindEvents drains the Sync API queue of the device.
	kindEvents
)

// streamDef declares one stream of the Sell API.
type streamDef struct {
	name        string
	path        string
	keys        []string
	replication domain.ReplicationMethod
	kind        feedKind

	// query is added to every list request.
	query url.Values

	// customFields lists the resource types whose custom fields are
	// merged into the schema.
	customFields []string

	// parent names the parent stream; partitionKey is the field injected
	// into child records, taken from the parent's id.
	parent       string
	partitionKey string

	// renameID moves the upstream id to another key.
	renameID string
}

// Collections are read in a fixed order so that a page-number cursor
// resumes where the previous run stopped.
func sortByID() url.Values {
	return url.Values{"sort_by": {"id"}}
}

func sortByUpdatedAt() url.Values {
	return url.Values{"sort_by": {"updated_at"}}
}

// streamDefs is the ordered registry of every stream the tap declares.
var streamDefs = []streamDef{
	{name: "accounts", path: "/v2/accounts/self", keys: []string{"id"}, kind: kindSingle},
	{name: "associated_contacts", path: "/v2/deals/%s/associated_contacts", keys: []string{"deal_id", "contact_id"},
		kind: kindChild, parent: "deals", partitionKey: "deal_id"},
	{name: "contacts", path: "/v2/contacts", keys: []string{"id"}, query: sortByID(),
		customFields: []string{resourceContact}},
	{name: "deal_sources", path: "/v2/deal_sources", keys: []string{"id"}},
	{name: "deal_unqualified_reasons", path: "/v2/deal_unqualified_reasons", keys: []string{"id"}},
	{name: "deals", path: "/v2/deals", keys: []string{"id"},
		query:        url.Values{"sort_by": {"id"}, "includes": {"associated_contacts"}},
		customFields: []string{resourceDeal}},
	{name: "events", keys: []string{}, replication: domain.ReplicationIncremental, kind: kindEvents,
		customFields: []string{resourceContact, resourceLead, resourceDeal}},
	{name: "lead_sources", path: "/v2/lead_sources", keys: []string{"id"}},
	{name: "lead_unqualified_reasons", path: "/v2/lead_unqualified_reasons", keys: []string{"id"}},
	{name: "leads", path: "/v2/leads", keys: []string{"id"}, query: sortByID(),
		customFields: []string{resourceLead}},
	{name: "line_items", path: "/v2/orders/%s/line_items", keys: []string{"line_item_id"},
		kind: kindChild, parent: "orders", partitionKey: "order_id", renameID: "line_item_id",
		query: sortByUpdatedAt()},
	{name: "loss_reasons", path: "/v2/loss_reasons", keys: []string{"id"}, query: sortByID()},
	{name: "notes", path: "/v2/notes", keys: []string{"id"}, query: sortByID()},
	{name: "orders", path: "/v2/orders", keys: []string{"id"}, query: sortByID()},
	{name: "pipelines", path: "/v2/pipelines", keys: []string{"id"}},
	{name: "products", path: "/v2/products", keys: []string{"id"}},
	{name: "stages", path: "/v2/stages", keys: []string{"id"}, query: sortByID()},
	{name: "tags", path: "/v2/tags", keys: []string{"id"}},
	{name: "tasks", path: "/v2/tasks", keys: []string{"id"}, query: sortByUpdatedAt()},
	{name: "text_messages", path: "/v2/text_messages", keys: []string{"id"}},
	{name: "users", path: "/v2/users", keys: []string{"id"}, query: sortByID()},
	{name: "visit_outcomes", path: "/v2/visit_outcomes", keys: []string{"id"}},
	{name: "visits", path: "/v2/visits", keys: []string{"id"}, query: sortByID()},
}

// lookupDef returns the definition of the named stream.
func lookupDef(name string) (*streamDef, bool) {
	for i := range streamDefs {
		if streamDefs[i].name == name {
			return &streamDefs[i], true
		}
	}
	return nil, false
}

// replicationMethod returns the stream's replication, FULL_TABLE by default.
func (d *streamDef) replicationMethod() domain.ReplicationMethod {
	if d.replication == "" {
		return domain.ReplicationFullTable
	}
	return d.replication
}
