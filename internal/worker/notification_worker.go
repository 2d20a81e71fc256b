package worker

import (
	"github.com/campusdesk/complaint-service/internal/events"
	"github.com/campusdesk/complaint-service/internal/service"
)

// StartNotificationWorker registers notification handlers. A nil publisher
// disables the pub/sub relay.
func StartNotificationWorker(notificationService *service.NotificationService, publisher events.Publisher) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers(publisher)
}
