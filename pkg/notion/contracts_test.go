package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotion replays canned query responses page by page and records writes.
type fakeNotion struct {
	responses []*notionapi.DatabaseQueryResponse
	queryErr  error
	calls     int

	updatedPage string
	updateReq   *notionapi.PageUpdateRequest
	createdReq  *notionapi.PageCreateRequest
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, _ *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.createdReq = req
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	f.updatedPage = pageID
	f.updateReq = req
	return &notionapi.Page{}, nil
}

func contractPage(pageID, name, accountID string, value float64) notionapi.Page {
	props := notionapi.Properties{
		PropName: &notionapi.TitleProperty{
			Title: []notionapi.RichText{{PlainText: name}},
		},
		PropValue: &notionapi.NumberProperty{Number: value},
	}
	if accountID != "" {
		props[PropAccountID] = &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{PlainText: accountID}},
		}
	}
	return notionapi.Page{ID: notionapi.ObjectID(pageID), Properties: props}
}

func TestFetchContractsPaginates(t *testing.T) {
	fake := &fakeNotion{responses: []*notionapi.DatabaseQueryResponse{
		{
			Results:    []notionapi.Page{contractPage("p1", "Acme Corp", "acct-1", 10_000)},
			HasMore:    true,
			NextCursor: "cursor-2",
		},
		{
			Results: []notionapi.Page{
				contractPage("p2", "Globex", "", 4_000),
				contractPage("p3", "", "ignored", 0), // untitled rows dropped
			},
		},
	}}

	rows, err := FetchContracts(context.Background(), fake, "db-1")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
	require.Len(t, rows, 2)

	assert.Equal(t, ContractRow{PageID: "p1", AccountID: "acct-1", Name: "Acme Corp", Value: 10_000}, rows[0])
	assert.Equal(t, ContractRow{PageID: "p2", Name: "Globex", Value: 4_000}, rows[1])
}

func TestFetchContractsQueryError(t *testing.T) {
	fake := &fakeNotion{queryErr: eris.New("unauthorized")}
	_, err := FetchContracts(context.Background(), fake, "db-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: fetch contracts")
}

func TestTargets(t *testing.T) {
	rows := []ContractRow{
		{PageID: "p1", AccountID: "acct-1", Name: "Acme", Value: 10_000},
		{PageID: "p2", Name: "Globex", Value: 4_000},
	}

	targets := Targets(rows)
	require.Len(t, targets, 2)

	// The shared account id is preferred as the target key; the page id is
	// the fallback for rows without one.
	assert.Equal(t, "acct-1", targets[0].ID)
	assert.Equal(t, "p2", targets[1].ID)
	assert.Equal(t, "Globex", targets[1].Name)
}

func TestUpdateContractValue(t *testing.T) {
	fake := &fakeNotion{}

	require.NoError(t, UpdateContractValue(context.Background(), fake, "p1", 12_500.0))
	assert.Equal(t, "p1", fake.updatedPage)

	prop, ok := fake.updateReq.Properties[PropValue].(notionapi.NumberProperty)
	require.True(t, ok)
	assert.InDelta(t, 12_500, prop.Number, 0.001)
}

func TestCreateContract(t *testing.T) {
	fake := &fakeNotion{}

	row := ContractRow{Name: "Acme Corp", AccountID: "acct-1", Value: 9_000}
	require.NoError(t, CreateContract(context.Background(), fake, "db-1", row))

	req := fake.createdReq
	require.NotNil(t, req)
	assert.Equal(t, notionapi.DatabaseID("db-1"), req.Parent.DatabaseID)

	title, ok := req.Properties[PropName].(notionapi.TitleProperty)
	require.True(t, ok)
	require.Len(t, title.Title, 1)
	assert.Equal(t, "Acme Corp", title.Title[0].Text.Content)

	_, hasAccount := req.Properties[PropAccountID]
	assert.True(t, hasAccount)
}

func TestCreateContractOmitsEmptyAccountID(t *testing.T) {
	fake := &fakeNotion{}

	require.NoError(t, CreateContract(context.Background(), fake, "db-1", ContractRow{Name: "Globex", Value: 1_000}))

	_, hasAccount := fake.createdReq.Properties[PropAccountID]
	assert.False(t, hasAccount)
}
