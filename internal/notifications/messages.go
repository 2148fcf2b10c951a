package notifications

import (
	"fmt"

	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

type content struct {
	title   string
	message string
}

func customerContent(order models.Order, kind enums.NotificationEvent) content {
	n := order.OrderNumber
	switch kind {
	case enums.NotificationEventConfirmed:
		return content{"Pedido confirmado", fmt.Sprintf("Seu pedido #%d foi confirmado pelo restaurante.", n)}
	case enums.NotificationEventReady:
		if order.IsDelivery() {
			return content{"Pedido pronto", fmt.Sprintf("Seu pedido #%d está pronto e aguarda o entregador.", n)}
		}
		return content{"Pedido pronto", fmt.Sprintf("Seu pedido #%d está pronto para retirada.", n)}
	case enums.NotificationEventOutForDelivery:
		return content{"Saiu para entrega", fmt.Sprintf("Seu pedido #%d saiu para entrega.", n)}
	case enums.NotificationEventDelivered:
		if order.LoyaltyPointsEarned != nil && *order.LoyaltyPointsEarned > 0 {
			return content{"Pedido entregue", fmt.Sprintf("Seu pedido #%d foi entregue. Você ganhou %d pontos!", n, *order.LoyaltyPointsEarned)}
		}
		return content{"Pedido entregue", fmt.Sprintf("Seu pedido #%d foi entregue. Bom apetite!", n)}
	case enums.NotificationEventCancelled:
		return content{"Pedido cancelado", fmt.Sprintf("Seu pedido #%d foi cancelado.", n)}
	default:
		return content{"Pedido atualizado", fmt.Sprintf("Seu pedido #%d mudou para %s.", n, order.Status)}
	}
}

func courierContent(order models.Order, kind enums.NotificationEvent) content {
	n := order.OrderNumber
	switch kind {
	case enums.NotificationEventCancelled:
		return content{"Entrega cancelada", fmt.Sprintf("O pedido #%d foi cancelado. Não é mais necessário entregar.", n)}
	case enums.NotificationEventOutForDelivery:
		return content{"Entrega iniciada", fmt.Sprintf("Entrega do pedido #%d em andamento para %s.", n, order.CustomerName)}
	case enums.NotificationEventDelivered:
		return content{"Entrega concluída", fmt.Sprintf("Pedido #%d entregue. Obrigado!", n)}
	default:
		return content{"Atualização de entrega", fmt.Sprintf("Pedido #%d mudou para %s.", n, order.Status)}
	}
}
