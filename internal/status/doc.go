// Package status records where a scene run ended up.
//
// A Snapshot is written when a run stops so operators, scripts and the
// "stagehand status" command can see the last state, variables and
// transcript without parsing logs.
//
//	repo := status.NewFileRepository("/var/lib/stagehand")
//	if err := repo.Save(ctx, snap); err != nil {
//	    return err
//	}
//
// Snapshot JSON uses snake_case field names.
package status
