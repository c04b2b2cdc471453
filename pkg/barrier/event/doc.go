// Package event is the raw observer channel of an event barrier.
//
// Every value notified on a barrier is first published here as an
// Occurrence, independently of any waiter. Observers subscribe by event
// name (or to everything) and receive occurrences asynchronously, in
// publish order, on a goroutine per subscription.
//
// # Publishing
//
//	bus := event.NewBus(event.BusConfig{BufferSize: 64, NonBlocking: true})
//	defer bus.Close()
//
//	bus.Publish(ctx, event.New("job.done", "worker", result))
//
// # Subscribing
//
//	sub, err := bus.Subscribe([]string{"job.done"}, event.HandlerFunc(
//	    func(ctx context.Context, evt event.Event) error {
//	        log.Printf("%s: %v", evt.Name(), evt.Data())
//	        return nil
//	    }))
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
// TypedHandler narrows the payload to a concrete type.
//
// # Delivery
//
// In blocking mode (the default) Publish waits for room in each matching
// subscription's buffer, honouring ctx. With NonBlocking set, occurrences
// that do not fit are dropped and reported through OnDrop. TryPublish drops
// the same way regardless of the mode. Handler errors
// go to OnError; they never reach the publisher.
package event
