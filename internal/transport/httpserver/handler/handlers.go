package handler

import (
	bookshandler "booknook-go/internal/transport/httpserver/handler/books"
	clubshandler "booknook-go/internal/transport/httpserver/handler/clubs"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	discussionshandler "booknook-go/internal/transport/httpserver/handler/discussions"
	eventshandler "booknook-go/internal/transport/httpserver/handler/events"
	notificationshandler "booknook-go/internal/transport/httpserver/handler/notifications"
)

type Handlers struct {
	Common        *commonhandler.Handlers
	Clubs         *clubshandler.Handlers
	Discussions   *discussionshandler.Handlers
	Books         *bookshandler.Handlers
	Events        *eventshandler.Handlers
	Notifications *notificationshandler.Handlers
}
