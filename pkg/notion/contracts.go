package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/account-intel/internal/reconcile"
)

// Contract board property names. The board is maintained by the account team,
// so these names are fixed by convention rather than configuration.
const (
	PropName      = "Name"
	PropAccountID = "Account ID"
	PropValue     = "Contract Value"
	PropStatus    = "Status"
)

// ContractRow is one entry on the contract tracking board.
type ContractRow struct {
	PageID    string
	AccountID string
	Name      string
	Value     float64
	Status    string
}

// queryAll fetches all pages from a database, handling pagination. Rate
// limiting is enforced by the Client.
func queryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			return all, nil
		}

		next := &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
		if filter != nil {
			next.Filter = filter.Filter
			next.Sorts = filter.Sorts
			next.PageSize = filter.PageSize
		}
		req = next
	}
}

// FetchContracts pulls every row of the contract tracking board.
func FetchContracts(ctx context.Context, c Client, dbID string) ([]ContractRow, error) {
	pages, err := queryAll(ctx, c, dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: fetch contracts")
	}

	rows := make([]ContractRow, 0, len(pages))
	for _, page := range pages {
		row := ContractRow{PageID: string(page.ID)}
		for name, prop := range page.Properties {
			switch name {
			case PropName:
				row.Name = titleText(prop)
			case PropAccountID:
				row.AccountID = richText(prop)
			case PropValue:
				row.Value = numberValue(prop)
			case PropStatus:
				row.Status = statusValue(prop)
			}
		}
		if row.Name == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Targets converts contract rows into reconciliation targets keyed by page.
func Targets(rows []ContractRow) []reconcile.TargetRecord {
	targets := make([]reconcile.TargetRecord, len(rows))
	for i, r := range rows {
		id := r.AccountID
		if id == "" {
			id = r.PageID
		}
		targets[i] = reconcile.TargetRecord{ID: id, Name: r.Name, Value: r.Value}
	}
	return targets
}

// UpdateContractValue overwrites the Contract Value property of a board page.
func UpdateContractValue(ctx context.Context, c Client, pageID string, value float64) error {
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			PropValue: notionapi.NumberProperty{Number: value},
		},
	})
	if err != nil {
		return eris.Wrap(err, "notion: update contract value")
	}
	return nil
}

// CreateContract adds a new row to the board for a record missing from it.
func CreateContract(ctx context.Context, c Client, dbID string, row ContractRow) error {
	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: row.Name}}},
		},
		PropValue: notionapi.NumberProperty{Number: row.Value},
	}
	if row.AccountID != "" {
		props[PropAccountID] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: row.AccountID}}},
		}
	}

	_, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{DatabaseID: notionapi.DatabaseID(dbID)},
		Properties: props,
	})
	if err != nil {
		return eris.Wrap(err, "notion: create contract row")
	}
	return nil
}

func titleText(prop notionapi.Property) string {
	p, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(p.Title) == 0 {
		return ""
	}
	out := ""
	for _, rt := range p.Title {
		out += rt.PlainText
	}
	return out
}

func richText(prop notionapi.Property) string {
	p, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(p.RichText) == 0 {
		return ""
	}
	out := ""
	for _, rt := range p.RichText {
		out += rt.PlainText
	}
	return out
}

func numberValue(prop notionapi.Property) float64 {
	p, ok := prop.(*notionapi.NumberProperty)
	if !ok {
		return 0
	}
	return p.Number
}

func statusValue(prop notionapi.Property) string {
	p, ok := prop.(*notionapi.StatusProperty)
	if !ok {
		return ""
	}
	return p.Status.Name
}
