package usecase

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/pkg/notify"
)

func otpMessage(phone, code string, window time.Duration) notify.Message {
	return notify.Message{
		Channel: notify.ChannelSMS,
		To:      phone,
		Body: fmt.Sprintf("Your login code is %s. It expires in %d minutes. Do not share it with anyone.",
			code, int(window.Minutes())),
	}
}

// directMessage picks e-mail when the identity has one, otherwise SMS.
func directMessage(identity *entity.Identity, subject, body string) notify.Message {
	if identity.Email != nil && *identity.Email != "" {
		return notify.Message{Channel: notify.ChannelEmail, To: *identity.Email, Subject: subject, Body: body}
	}
	phone := ""
	if identity.Phone != nil {
		phone = *identity.Phone
	}
	return notify.Message{Channel: notify.ChannelSMS, To: phone, Subject: subject, Body: body}
}

func inviteLink(baseURL string, identity *entity.Identity, opaque string) string {
	q := url.Values{}
	q.Set("track", string(identity.Track))
	q.Set("identifier", identity.PublicID)
	q.Set("token", opaque)
	return strings.TrimRight(baseURL, "/") + "/set-password?" + q.Encode()
}

func inviteMessage(identity *entity.Identity, link string, ttl time.Duration) notify.Message {
	body := fmt.Sprintf("Hello %s,\n\nAn account has been created for you. Your unique ID is %s.\n"+
		"Set your password within %d hours using this link:\n%s\n",
		identity.Name, identity.PublicID, int(ttl.Hours()), link)
	return directMessage(identity, "Set up your account", body)
}

func tempPasswordMessage(identity *entity.Identity, password string) notify.Message {
	body := fmt.Sprintf("Hello %s,\n\nYour temporary password is %s. Your unique ID is %s.\n"+
		"Log in and change it as soon as possible.\n",
		identity.Name, password, identity.PublicID)
	return directMessage(identity, "Your temporary password", body)
}
