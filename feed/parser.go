package feed

import (
	"encoding/base64"
	"fmt"

	"github.com/sugawarayuuta/sonnet"
)

// accountNotification is the wire envelope for one account update on the
// multiplexed subscription. Data carries the full account snapshot base64
// encoded.
type accountNotification struct {
	Account string `json:"account"`
	Data    string `json:"data"`
	Slot    uint64 `json:"slot"`
}

// subscribeRequest names the accounts the feed wants updates for.
type subscribeRequest struct {
	Type     string   `json:"type"`
	Accounts []string `json:"accounts"`
}

// ParseAccountUpdate decodes one raw websocket message into the account key
// and raw account bytes.
func ParseAccountUpdate(raw []byte) (account string, data []byte, err error) {
	var msg accountNotification
	if err = sonnet.Unmarshal(raw, &msg); err != nil {
		return "", nil, fmt.Errorf("parse account update: %w", err)
	}
	if msg.Account == "" {
		return "", nil, fmt.Errorf("account update missing account key")
	}
	data, err = base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return "", nil, fmt.Errorf("decode account data: %w", err)
	}
	return msg.Account, data, nil
}

func encodeSubscribe(accounts []string) ([]byte, error) {
	return sonnet.Marshal(subscribeRequest{Type: "subscribe", Accounts: accounts})
}
