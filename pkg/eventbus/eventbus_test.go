package eventbus

import (
	"testing"
	"time"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
)

func TestBus_TransactionReceived_DeliversToSubscriber(t *testing.T) {
	bus := New()
	ch := make(chan TransactionReceived, 1)
	sub := bus.SubscribeTransactionReceived(ch)
	defer sub.Unsubscribe()

	txID := ids.NewTransactionId()
	bus.PublishTransactionReceived(TransactionReceived{TransactionId: txID})

	select {
	case got := <-ch:
		if got.TransactionId != txID {
			t.Errorf("expected transaction id %s, got %s", txID, got.TransactionId)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for TransactionReceived event")
	}
}

func TestBus_IdentityUpdated_MultipleSubscribersAllReceive(t *testing.T) {
	bus := New()
	chA := make(chan IdentityUpdated, 1)
	chB := make(chan IdentityUpdated, 1)
	subA := bus.SubscribeIdentityUpdated(chA)
	subB := bus.SubscribeIdentityUpdated(chB)
	defer subA.Unsubscribe()
	defer subB.Unsubscribe()

	bus.PublishIdentityUpdated(IdentityUpdated{PublicSigningAddress: "addr-1"})

	for _, ch := range []chan IdentityUpdated{chA, chB} {
		select {
		case got := <-ch:
			if got.PublicSigningAddress != "addr-1" {
				t.Errorf("expected addr-1, got %s", got.PublicSigningAddress)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for IdentityUpdated event")
		}
	}
}

func TestBus_PublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	bus := New()
	done := make(chan struct{})
	go func() {
		bus.PublishBlockIndexCompleted(BlockIndexCompleted{BlockIndex: ids.BlockIndex(1)})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish with no subscribers should not block")
	}
}
