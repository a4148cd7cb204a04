// Package pagination implements the list engine behind every "get many" action.
//
// A Resource names one provider list endpoint, the field of the response's
// data object that holds its entries, and its continuation Style. Two styles
// share a single driver loop:
//
//   - CursorStyle reads data.pagination.next_cursor and sends it back as ?cursor=.
//     An absent or empty cursor ends the loop.
//   - PageStyle reads data.pagination.current_page / last_page and requests
//     ?page=current_page+1 until current_page >= last_page.
//
// Unpaginated resources return everything in one response; limits are applied
// client-side.
//
// Example usage:
//
//	fetcher := pagination.NewFetcher(mailClient, pagination.DefaultConfig())
//	records, err := fetcher.Collect(ctx, pagination.Emails, pagination.Request{
//		ReturnAll: true,
//		Simplify:  true,
//		Filters:   url.Values{"recipients": {"ops@example.com"}},
//	})
//
// Pages are fetched strictly one after another and never retried. Continuation
// always comes from the server's last envelope. With Config.MaxPages at its
// default of 0 the loop ends only when the server says so.
package pagination
