package mq

import "errors"

var (
	// ErrNoChannel — AMQP канал недоступен (нет соединения).
	ErrNoChannel = errors.New("no channel available")

	// ErrDeliveriesClosed — канал доставки закрыт брокером.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")

	// ErrDropMessage — обработчик не может обработать сообщение;
	// оно отклоняется без возврата в очередь.
	ErrDropMessage = errors.New("drop message")

	// ErrClientClosed — TaskClient закрыт, ответ не придёт.
	ErrClientClosed = errors.New("task client closed")
)
