package worker

import "context"

// RefreshAll runs one refresh cycle synchronously.
func (w *DirectoryRefreshWorker) RefreshAll(ctx context.Context) int {
	return w.refreshAll(ctx)
}
