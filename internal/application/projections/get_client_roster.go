package projections

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"trainerapp/internal/application/listutil"
	domainClient "trainerapp/internal/domain/client"
	"trainerapp/internal/domain/payment"
)

// RosterSortColumns are the columns the roster can be sorted by.
var RosterSortColumns = []string{"name", "unpaid", "prepaid"}

// balanceFetchLimit bounds concurrent balance requests to the backend.
const balanceFetchLimit = 4

// GetClientRosterQuery carries query parameters.
type GetClientRosterQuery struct {
	listutil.ListParams
}

// RosterRow is one client with their session balance.
type RosterRow struct {
	Client  domainClient.Client
	Balance payment.Balance
}

// GetClientRosterResult carries the query result.
type GetClientRosterResult struct {
	Rows     []RosterRow
	PageInfo listutil.PageInfo
}

// GetClientRosterDeps holds dependencies for GetClientRoster.
type GetClientRosterDeps struct {
	Clients  ClientLister
	Balances BalanceSource
}

// QueryGetClientRoster lists matching clients with their paid and unpaid session counts.
// PRE: Page >= 1, PerPage > 0
// POST: Rows holds one page of matching clients; balances are fetched only for that page
func QueryGetClientRoster(ctx context.Context, query GetClientRosterQuery, deps GetClientRosterDeps) (GetClientRosterResult, error) {
	clients, err := deps.Clients.ListClients(ctx, query.Search)
	if err != nil {
		return GetClientRosterResult{}, fmt.Errorf("list clients: %w", err)
	}

	// Balance columns need every balance before paging.
	byBalance := query.Sort == "unpaid" || query.Sort == "prepaid"
	if !byBalance {
		sortClients(clients, query.Desc)
	}

	info := listutil.NewPageInfo(query.Page, query.PerPage, len(clients))
	lo, hi := info.Bounds()
	page := clients
	if !byBalance {
		page = clients[lo:hi]
	}

	rows, err := fetchBalances(ctx, deps.Balances, page)
	if err != nil {
		return GetClientRosterResult{}, err
	}
	if byBalance {
		sortRows(rows, query.Sort, query.Desc)
		rows = rows[lo:hi]
	}
	return GetClientRosterResult{Rows: rows, PageInfo: info}, nil
}

func fetchBalances(ctx context.Context, src BalanceSource, clients []domainClient.Client) ([]RosterRow, error) {
	rows := make([]RosterRow, len(clients))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceFetchLimit)
	for i, c := range clients {
		rows[i].Client = c
		g.Go(func() error {
			b, err := src.PaymentBalance(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("balance for client %d: %w", c.ID, err)
			}
			rows[i].Balance = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func sortClients(clients []domainClient.Client, desc bool) {
	sort.SliceStable(clients, func(i, j int) bool {
		a, b := strings.ToLower(clients[i].Name), strings.ToLower(clients[j].Name)
		if desc {
			return a > b
		}
		return a < b
	})
}

func sortRows(rows []RosterRow, col string, desc bool) {
	key := func(r RosterRow) int {
		if col == "prepaid" {
			return r.Balance.PrepaidSessions
		}
		return r.Balance.UnpaidSessions
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := key(rows[i]), key(rows[j])
		if a == b {
			return strings.ToLower(rows[i].Client.Name) < strings.ToLower(rows[j].Client.Name)
		}
		if desc {
			return a > b
		}
		return a < b
	})
}
