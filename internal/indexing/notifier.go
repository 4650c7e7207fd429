package indexing

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Submitter is one external notification service as seen by the
// orchestrator. A nil error means the submission was accepted in full.
type Submitter interface {
	Name() Provider
	Notify(ctx context.Context, urls []string, typ NotificationType) error
}

// Notify adapts the Google batch client to the Submitter interface,
// using the retry wrapper. The provider counts as failed when any URL
// in the batch was not accepted.
func (c *GoogleClient) Notify(ctx context.Context, urls []string, typ NotificationType) error {
	results := c.SubmitWithRetry(ctx, urls, typ)

	failed := 0
	for _, r := range results {
		if !r.Succeeded {
			failed++
			log.Printf("[indexing] google rejected %s: %s", r.URL, r.Message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d URLs not accepted", failed, len(results))
	}
	return nil
}

// Notify adapts the IndexNow client to the Submitter interface. The
// notification type is dropped: IndexNow has no update/delete
// distinction. Batches above the protocol's per-call cap are split so
// a 100-job sweep does not trip Submit's validation.
func (c *IndexNowClient) Notify(ctx context.Context, urls []string, _ NotificationType) error {
	for start := 0; start < len(urls); start += indexNowMaxURLs {
		end := min(start+indexNowMaxURLs, len(urls))
		if err := c.Submit(ctx, urls[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Notifier fans one URL set out to every configured provider.
type Notifier struct {
	providers []Submitter
}

// NewNotifier returns a Notifier over the given providers. Providers
// are independent fallbacks for each other; zero providers is valid
// and makes NotifyAll a no-op.
func NewNotifier(providers ...Submitter) *Notifier {
	return &Notifier{providers: providers}
}

// NotifyAll invokes every provider concurrently and waits for all of
// them to settle. One Outcome per provider is always returned: a
// provider failing, timing out or panicking never prevents the others
// from completing or from having their result observed.
func (n *Notifier) NotifyAll(ctx context.Context, urls []string, typ NotificationType) []Outcome {
	if len(urls) == 0 || len(n.providers) == 0 {
		return nil
	}

	outcomes := make([]Outcome, len(n.providers))
	var wg sync.WaitGroup

	for i, p := range n.providers {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = Outcome{Provider: p.Name(), Succeeded: false, Err: fmt.Sprintf("panic: %v", r)}
				}
			}()

			if err := p.Notify(ctx, urls, typ); err != nil {
				outcomes[i] = Outcome{Provider: p.Name(), Succeeded: false, Err: err.Error()}
				return
			}
			outcomes[i] = Outcome{Provider: p.Name(), Succeeded: true}
		}()
	}
	wg.Wait()

	return outcomes
}

// LogOutcomes writes one line per provider outcome, tagged with the
// calling component.
func LogOutcomes(component string, outcomes []Outcome) {
	for _, o := range outcomes {
		if o.Succeeded {
			log.Printf("[%s] %s notification ok", component, o.Provider)
		} else {
			log.Printf("[%s] %s notification failed: %s", component, o.Provider, o.Err)
		}
	}
}
