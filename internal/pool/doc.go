// Package pool bounds how many jobs run concurrently.
//
// Jobs are admitted in FIFO order up to a fixed worker count; submission
// never blocks beyond queueing and returns a handle for waiting and
// cancellation. Shutdown drains or cancels the queue, waits out a grace
// period for active jobs, and cancels whatever remains.
package pool
