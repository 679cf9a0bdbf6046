package salesforce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/account-intel/internal/model"
)

// Opportunity is the slice of a Salesforce Opportunity record needed to build
// a transaction row.
type Opportunity struct {
	ID          string  `json:"Id" salesforce:"Id"`
	AccountID   string  `json:"AccountId" salesforce:"AccountId"`
	AccountName string  `json:"AccountName" salesforce:"Account.Name"`
	ParentID    string  `json:"ParentId" salesforce:"Account.ParentId"`
	Category    string  `json:"Category" salesforce:"Product_Category__c"`
	Amount      float64 `json:"Amount" salesforce:"Amount"`
	Cost        float64 `json:"Cost" salesforce:"Total_Cost__c"`
	Quantity    int     `json:"Quantity" salesforce:"TotalOpportunityQuantity"`
	CloseDate   string  `json:"CloseDate" salesforce:"CloseDate"`
}

// opportunityFields are the SOQL fields selected for Opportunity pulls.
var opportunityFields = []string{
	"Id", "AccountId", "Account.Name", "Account.ParentId",
	"Product_Category__c", "Amount", "Total_Cost__c",
	"TotalOpportunityQuantity", "CloseDate",
}

// PullTransactions queries closed-won opportunities in [from, to) and maps
// them onto transactions. Opportunities without an account are dropped.
func PullTransactions(ctx context.Context, c Client, from, to time.Time) ([]model.Transaction, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Opportunity WHERE IsWon = true AND CloseDate >= %s AND CloseDate < %s",
		strings.Join(opportunityFields, ", "),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	)

	var opps []Opportunity
	if err := c.Query(ctx, soql, &opps); err != nil {
		return nil, eris.Wrap(err, "sf: pull opportunities")
	}

	txns := make([]model.Transaction, 0, len(opps))
	for _, o := range opps {
		if o.AccountID == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", o.CloseDate)
		if err != nil {
			continue
		}
		txns = append(txns, model.Transaction{
			ID:         o.ID,
			EntityID:   o.AccountID,
			EntityName: o.AccountName,
			ParentID:   o.ParentID,
			Category:   o.Category,
			Revenue:    o.Amount,
			Cost:       o.Cost,
			Units:      o.Quantity,
			Date:       date,
		})
	}
	return txns, nil
}

// BucketField is the Account field that receives strategic bucket pushes.
const BucketField = "Strategic_Bucket__c"

// PushBuckets writes strategic bucket assignments back to their Salesforce
// accounts in collection batches. Returns the count of successful updates.
func PushBuckets(ctx context.Context, c Client, assignments map[string]string) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	records := make([]CollectionRecord, 0, len(assignments))
	for id, bucket := range assignments {
		records = append(records, CollectionRecord{
			ID:     id,
			Fields: map[string]any{BucketField: bucket},
		})
	}

	results, err := c.UpdateCollection(ctx, "Account", records)
	if err != nil {
		return 0, eris.Wrap(err, "sf: push buckets")
	}

	ok := 0
	var failed []string
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		failed = append(failed, r.ID)
	}
	if len(failed) > 0 {
		return ok, eris.Errorf("sf: push buckets: %d of %d updates failed", len(failed), len(results))
	}
	return ok, nil
}
