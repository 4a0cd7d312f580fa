package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// ErrAlreadySubscribed indicates the email is already subscribed to the topic.
var ErrAlreadySubscribed = errors.New("email already subscribed")

// notificationTopic returns the SNS topic name for labeling notifications;
// override with SNS_TOPIC_NAME.
func notificationTopic() string {
	topic := os.Getenv("SNS_TOPIC_NAME")
	if topic == "" {
		topic = "labeling-notifications"
	}
	return topic
}

// SubscribeNotificationsEmail subscribes the provided email to the
// labeling notifications SNS topic. The topic is created if it does not
// already exist. Returns the SubscriptionArn if immediately available;
// for email subscriptions this is typically pending until confirmed.
func SubscribeNotificationsEmail(ctx context.Context, email string) (string, error) {
	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return "", err
	}
	client := sns.NewFromConfig(cfg)

	createOut, err := client.CreateTopic(ctx, &sns.CreateTopicInput{
		Name: aws.String(notificationTopic()),
	})
	if err != nil {
		return "", err
	}

	// Check if email is already subscribed (confirmed) to the topic
	p := sns.NewListSubscriptionsByTopicPaginator(client, &sns.ListSubscriptionsByTopicInput{
		TopicArn: createOut.TopicArn,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, s := range page.Subscriptions {
			if s.Endpoint != nil && strings.EqualFold(*s.Endpoint, email) && s.Protocol != nil && *s.Protocol == "email" {
				if s.SubscriptionArn != nil && *s.SubscriptionArn != "" && *s.SubscriptionArn != "PendingConfirmation" {
					return "", ErrAlreadySubscribed
				}
			}
		}
	}

	subOut, err := client.Subscribe(ctx, &sns.SubscribeInput{
		Protocol: aws.String("email"),
		Endpoint: aws.String(email),
		TopicArn: createOut.TopicArn,
	})
	if err != nil {
		return "", err
	}
	if subOut.SubscriptionArn == nil {
		return "", nil
	}
	return *subOut.SubscriptionArn, nil
}

// PublishNotification publishes a plain-text message to the labeling
// notifications topic, creating the topic if needed. Subject is optional.
func PublishNotification(ctx context.Context, subject, message string) error {
	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return err
	}
	client := sns.NewFromConfig(cfg)

	createOut, err := client.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(notificationTopic())})
	if err != nil {
		return err
	}
	pubIn := &sns.PublishInput{TopicArn: createOut.TopicArn, Message: aws.String(message)}
	if strings.TrimSpace(subject) != "" {
		pubIn.Subject = aws.String(subject)
	}
	_, err = client.Publish(ctx, pubIn)
	return err
}

// NotifyRunUploaded publishes a summary notification for a completed run.
func NotifyRunUploaded(ctx context.Context, result *RunResult) error {
	message := fmt.Sprintf(
		"Labeling run %s uploaded ground truth for %d events (%d rows, %d substituted) to %s",
		result.RunID, result.Events, result.Rows, result.Substituted, result.DestinationKey)
	return PublishNotification(ctx, "Ground truth uploaded", message)
}
