package services

import (
	"context"
	"log"
	"sync"
	"time"

	"telescordAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes persisted notifications to devices through
// a small worker pool. Pushes are one-shot: a failed push is logged and the
// row stays pending, nothing is retried.
type NotificationDispatcher struct {
	service  *NotificationService
	workers  int
	jobQueue chan *notification.Notification
	stopChan chan struct{}
	wg       sync.WaitGroup

	// The provider is injected after the workers are already running.
	providerMu   sync.RWMutex
	pushProvider PushNotificationProvider
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  5, // 5 workers is plenty for now
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()

	// Cleanup job for old read notifications
	go dispatcher.cleanupLoop()

	return dispatcher
}

func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.providerMu.Lock()
	d.pushProvider = provider
	d.providerMu.Unlock()
}

func (d *NotificationDispatcher) provider() PushNotificationProvider {
	d.providerMu.RLock()
	defer d.providerMu.RUnlock()
	return d.pushProvider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.jobQueue:
			d.processJob(n)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(n *notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if provider := d.provider(); provider != nil {
		tokens, err := d.service.store.DeviceTokens(ctx, n.UserID)
		if err != nil {
			log.Printf("Failed to get device tokens for %s: %v", n.UserID, err)
			return
		}

		if len(tokens) > 0 {
			if err := provider.SendPush(ctx, tokens, n.Title, n.Body, n.Data); err != nil {
				log.Printf("Push failed for user %s: %v", n.UserID, err)
				return
			}
		}
	}

	if err := d.service.store.MarkSent(ctx, n.ID); err != nil {
		log.Printf("Failed to mark notification %s as sent: %v", n.ID, err)
	}
}

// Dispatch queues a notification for device push. Drops on a full queue
// rather than blocking the caller.
func (d *NotificationDispatcher) Dispatch(n *notification.Notification) {
	select {
	case d.jobQueue <- n:
	default:
		log.Printf("Notification queue full, dropping push for %s", n.ID)
	}
}

// Cleanup old read notifications (runs daily)
func (d *NotificationDispatcher) cleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.performCleanup()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) performCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := d.service.store.DeleteOldRead(ctx, time.Now().AddDate(0, 0, -90))
	if err != nil {
		log.Printf("Failed to cleanup old notifications: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Cleaned up %d old read notifications", deleted)
	}
}

// Stop the dispatcher gracefully
func (d *NotificationDispatcher) Stop() {
	log.Println("Stopping notification dispatcher...")
	close(d.stopChan)
	d.wg.Wait()
	log.Println("Notification dispatcher stopped")
}
