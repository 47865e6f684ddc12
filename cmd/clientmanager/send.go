package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360/clientmanager/message"
	"github.com/c360/clientmanager/natsclient"
)

// sendOptions are the flags shared by the send subcommands.
type sendOptions struct {
	global  *globalFlags
	natsURL string
	subject string
	timeout time.Duration
}

func newSendCmd(flags *globalFlags) *cobra.Command {
	opts := &sendOptions{global: flags}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Publish a lifecycle event to a running client manager",
		Long: `Publishes one lifecycle event on the shared commands subject, tagged with
its short action name. Useful for wiring checks and demos.`,
	}
	cmd.PersistentFlags().StringVar(&opts.natsURL, "nats-url", "", "NATS URL (default: nats.url from config)")
	cmd.PersistentFlags().StringVar(&opts.subject, "subject", "clientmanager.commands", "Subject to publish on")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Connect and publish timeout")

	cmd.AddCommand(
		newSendPublisherJoinedCmd(opts),
		newSendPublisherLeftCmd(opts),
		newSendAddQueryCmd(opts),
		newSendDelQueryCmd(opts),
		newSendWorkerCmd(opts),
	)
	return cmd
}

func newSendPublisherJoinedCmd(opts *sendOptions) *cobra.Command {
	var publisherID, source, resolution, fps string

	cmd := &cobra.Command{
		Use:   "publisher-joined",
		Short: "Announce a publisher (pubJoin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.send(cmd, publisherJoinedEvent(publisherID, source, resolution, fps))
		},
	}
	cmd.Flags().StringVar(&publisherID, "publisher", "", "Publisher id")
	cmd.Flags().StringVar(&source, "source", "", "Stream source URL")
	cmd.Flags().StringVar(&resolution, "resolution", "300x300", "Stream resolution")
	cmd.Flags().StringVar(&fps, "fps", "30", "Stream frames per second")
	_ = cmd.MarkFlagRequired("publisher")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newSendPublisherLeftCmd(opts *sendOptions) *cobra.Command {
	var publisherID string

	cmd := &cobra.Command{
		Use:   "publisher-left",
		Short: "Remove a publisher (pubLeave)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.send(cmd, map[string]any{
				"action":       "pubLeave",
				"publisher_id": publisherID,
			})
		},
	}
	cmd.Flags().StringVar(&publisherID, "publisher", "", "Publisher id")
	_ = cmd.MarkFlagRequired("publisher")
	return cmd
}

func newSendAddQueryCmd(opts *sendOptions) *cobra.Command {
	var subscriberID, queryText, queryFile string

	cmd := &cobra.Command{
		Use:   "add-query",
		Short: "Register a subscriber query (addQuery)",
		Example: `  clientmanager send add-query --subscriber sub_1 --file query.txt
  echo "REGISTER QUERY q ..." | clientmanager send add-query --subscriber sub_1 --file -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readQuery(cmd.InOrStdin(), queryText, queryFile)
			if err != nil {
				return err
			}
			return opts.send(cmd, map[string]any{
				"action":        "addQuery",
				"subscriber_id": subscriberID,
				"query":         text,
			})
		},
	}
	cmd.Flags().StringVar(&subscriberID, "subscriber", "", "Subscriber id")
	cmd.Flags().StringVar(&queryText, "query", "", "Query text")
	cmd.Flags().StringVar(&queryFile, "file", "", "Read the query text from a file, - for stdin")
	cmd.MarkFlagsMutuallyExclusive("query", "file")
	_ = cmd.MarkFlagRequired("subscriber")
	return cmd
}

func newSendDelQueryCmd(opts *sendOptions) *cobra.Command {
	var subscriberID, name string

	cmd := &cobra.Command{
		Use:   "del-query",
		Short: "Delete a subscriber query (delQuery)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.send(cmd, map[string]any{
				"action":        "delQuery",
				"subscriber_id": subscriberID,
				"query_name":    name,
			})
		},
	}
	cmd.Flags().StringVar(&subscriberID, "subscriber", "", "Subscriber id")
	cmd.Flags().StringVar(&name, "name", "", "Query name")
	_ = cmd.MarkFlagRequired("subscriber")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSendWorkerCmd(opts *sendOptions) *cobra.Command {
	var serviceType, streamKey string
	var attrs map[string]string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Announce a processing-service worker (addWorker)",
		Example: `  clientmanager send worker --service-type ObjectDetection --stream-key od-1 \
      --attr queue_limit=100 --attr throughput=30 --attr accuracy=0.9`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.send(cmd, workerEvent(serviceType, streamKey, attrs))
		},
	}
	cmd.Flags().StringVar(&serviceType, "service-type", "", "Service type the worker runs")
	cmd.Flags().StringVar(&streamKey, "stream-key", "", "Worker input stream key")
	cmd.Flags().StringToStringVar(&attrs, "attr", nil, "Worker attribute key=value, repeatable")
	_ = cmd.MarkFlagRequired("service-type")
	_ = cmd.MarkFlagRequired("stream-key")
	return cmd
}

// publisherJoinedEvent builds a pubJoin event. A numeric fps is sent as a number.
func publisherJoinedEvent(publisherID, source, resolution, fps string) map[string]any {
	return map[string]any{
		"action":       "pubJoin",
		"publisher_id": publisherID,
		"source":       source,
		"meta": map[string]any{
			"resolution": resolution,
			"fps":        scalar(fps),
		},
	}
}

// workerEvent builds an addWorker event. Numeric attribute values are sent as numbers.
func workerEvent(serviceType, streamKey string, attrs map[string]string) map[string]any {
	worker := map[string]any{
		"service_type": serviceType,
		"stream_key":   streamKey,
	}
	for k, v := range attrs {
		worker[k] = scalar(v)
	}
	return map[string]any{
		"action": "addWorker",
		"worker": worker,
	}
}

func scalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func readQuery(stdin io.Reader, text, path string) (string, error) {
	switch path {
	case "":
		if text == "" {
			return "", fmt.Errorf("one of --query or --file is required")
		}
		return text, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read query from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read query file: %w", err)
		}
		return string(data), nil
	}
}

// encodeEvent stamps a fresh correlation id on event and marshals it.
func encodeEvent(event map[string]any) (string, []byte, error) {
	id := message.NewEventID(appName)
	event["id"] = id

	data, err := json.Marshal(event)
	if err != nil {
		return "", nil, fmt.Errorf("encode event: %w", err)
	}
	if err := message.ValidateEnvelope(data); err != nil {
		return "", nil, err
	}
	return id, data, nil
}

func (o *sendOptions) send(cmd *cobra.Command, event map[string]any) error {
	id, data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	url := o.natsURL
	if url == "" {
		cfg, _, err := loadConfig(o.global)
		if err != nil {
			return err
		}
		url = cfg.NATS.URL
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName+"-send"),
		natsclient.WithReconnect(0, 0))
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer func() { _ = client.Close(context.Background()) }()

	if err := client.Publish(ctx, o.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	cmd.Printf("sent %s %s to %s\n", event["action"], id, o.subject)
	return nil
}
