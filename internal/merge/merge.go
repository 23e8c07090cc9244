// Package merge reconciles a client's cached student list with the
// server's list.
//
// Records are keyed by id and the client's copy wins whenever both
// sides hold the same id. There is no timestamp or version comparison,
// so two clients editing the same record overwrite each other.
package merge

import "github.com/aanand-mishra/student-records/internal/types"

// Students returns the id-keyed union of server and client.
//
//   - ids on both sides: the client's record replaces the server's, in
//     the server's position
//   - server-only ids: kept, in server order
//   - client-only ids: appended, in client order
//
// Client records without an id cannot be keyed and are dropped. When the
// client repeats an id, its last occurrence wins.
//
// changed reports whether the result differs from server.
func Students(server, client []types.Student) (merged []types.Student, changed bool) {
	latest := make(map[string]types.Student, len(client))
	order := make([]string, 0, len(client))
	for _, c := range client {
		if c.ID == "" {
			continue
		}
		if _, seen := latest[c.ID]; !seen {
			order = append(order, c.ID)
		}
		latest[c.ID] = c
	}

	merged = make([]types.Student, 0, len(server)+len(order))
	onServer := make(map[string]struct{}, len(server))

	for _, s := range server {
		onServer[s.ID] = struct{}{}
		if c, ok := latest[s.ID]; ok {
			if c != s {
				changed = true
			}
			merged = append(merged, c)
			continue
		}
		merged = append(merged, s)
	}

	for _, id := range order {
		if _, ok := onServer[id]; ok {
			continue
		}
		merged = append(merged, latest[id])
		changed = true
	}

	return merged, changed
}
