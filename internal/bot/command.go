package bot

import (
	"fmt"
	"strings"
)

// CallbackKind identifies a decoded inline-keyboard action.
type CallbackKind int

const (
	CallbackMainMenu CallbackKind = iota
	CallbackBrowseCategories
	CallbackMySubscriptions
	CallbackHelp
	CallbackSubscribeCategory
	CallbackUnsubscribeCategory
	CallbackUnsubscribeTopic
)

// Callback is an inline-keyboard action decoded from its wire form.
// Callback data is parsed exactly once at the update boundary; handlers
// switch on Kind and never see the raw string again.
type Callback struct {
	Kind  CallbackKind
	Topic string // set for the subscription-mutating kinds
}

// Wire tags for callback data. Kept short: Telegram limits callback data
// to 64 bytes and the topic rides along in the same field.
const (
	tagMainMenu         = "main_menu"
	tagBrowseCategories = "browse_categories"
	tagMySubscriptions  = "my_subscriptions"
	tagHelp             = "help"
	tagSubscribeCat     = "sub_cat"
	tagUnsubscribeCat   = "unsub_cat"
	tagUnsubscribe      = "unsub"
)

// ParseCallback decodes raw callback data into a Callback value.
// The wire form is either a bare tag or "tag:topic".
func ParseCallback(data string) (Callback, error) {
	tag, topic, _ := strings.Cut(data, ":")

	switch tag {
	case tagMainMenu:
		return Callback{Kind: CallbackMainMenu}, nil
	case tagBrowseCategories:
		return Callback{Kind: CallbackBrowseCategories}, nil
	case tagMySubscriptions:
		return Callback{Kind: CallbackMySubscriptions}, nil
	case tagHelp:
		return Callback{Kind: CallbackHelp}, nil
	case tagSubscribeCat, tagUnsubscribeCat, tagUnsubscribe:
		if topic == "" {
			return Callback{}, fmt.Errorf("ParseCallback: %q requires a topic", tag)
		}
		kind := CallbackUnsubscribeTopic
		switch tag {
		case tagSubscribeCat:
			kind = CallbackSubscribeCategory
		case tagUnsubscribeCat:
			kind = CallbackUnsubscribeCategory
		}
		return Callback{Kind: kind, Topic: topic}, nil
	default:
		return Callback{}, fmt.Errorf("ParseCallback: unknown callback %q", tag)
	}
}

// Encode renders the Callback back to its wire form for keyboard buttons.
func (c Callback) Encode() string {
	switch c.Kind {
	case CallbackMainMenu:
		return tagMainMenu
	case CallbackBrowseCategories:
		return tagBrowseCategories
	case CallbackMySubscriptions:
		return tagMySubscriptions
	case CallbackHelp:
		return tagHelp
	case CallbackSubscribeCategory:
		return tagSubscribeCat + ":" + c.Topic
	case CallbackUnsubscribeCategory:
		return tagUnsubscribeCat + ":" + c.Topic
	case CallbackUnsubscribeTopic:
		return tagUnsubscribe + ":" + c.Topic
	default:
		return ""
	}
}
