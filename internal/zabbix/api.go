package zabbix

import (
	"context"
	"errors"

	"github.com/zbxtools/zbxcall/internal/dispatcher"
)

// Object implements dispatcher.API. Object names are not checked locally,
// an unknown name is reported by the server when the operation is invoked.
func (c *Client) Object(name string) (dispatcher.Object, error) {
	if name == "" {
		return nil, errors.New("empty api object name")
	}
	return objectHandle{client: c, name: name}, nil
}

type objectHandle struct {
	client *Client
	name   string
}

// Method returns an operation calling "<object>.<action>" on the server
func (o objectHandle) Method(action string) (dispatcher.Operation, error) {
	if action == "" {
		return nil, errors.New("empty api method name")
	}
	method := o.name + "." + action
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return o.client.Do(ctx, method, params)
	}, nil
}
