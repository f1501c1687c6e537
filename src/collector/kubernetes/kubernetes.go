// Package kubernetes collects pod logs and recent events from a cluster for
// the orchestrator source.
package kubernetes

import (
	"context"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"opslens/src/adapter"
	"opslens/src/collector"
	"opslens/src/contracts"
	"opslens/src/logger"
)

const (
	// DefaultNamespace is used when the request does not name one.
	DefaultNamespace = "default"

	// TailLines is the number of log lines read per pod.
	TailLines = 50

	// EventWindow bounds how far back events are collected.
	EventWindow = 60 * time.Minute
)

func init() {
	collector.Register(contracts.SourceOrchestrator, func(log logger.Logger) collector.Collector {
		return New(log, nil)
	})
}

// ClientFunc builds a clientset for a request's configuration.
type ClientFunc func(cfg collector.Config) (kubernetes.Interface, error)

// Collector implements collector.Collector for Kubernetes.
type Collector struct {
	log       logger.Logger
	newClient ClientFunc
	now       func() time.Time
}

// New creates a Kubernetes collector. A nil newClient loads the kubeconfig
// named by config.kubeConfigPath, the default loading rules, or the in-cluster
// service account, in that order.
func New(log logger.Logger, newClient ClientFunc) *Collector {
	if newClient == nil {
		newClient = DefaultClient
	}
	return &Collector{
		log:       log,
		newClient: newClient,
		now:       time.Now,
	}
}

// Source returns the orchestrator source.
func (c *Collector) Source() contracts.Source {
	return contracts.SourceOrchestrator
}

// Collect reads the tail of every pod's first container and the namespace's
// events from the last EventWindow.
func (c *Collector) Collect(ctx context.Context, cfg collector.Config) ([]collector.Batch, error) {
	client, err := c.newClient(cfg)
	if err != nil {
		return nil, collector.Unreachable(c.Source(), err)
	}

	namespace := cfg.StringOr("namespace", DefaultNamespace)
	tail := int64(cfg.Int("tailLines", TailLines))

	pods, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, collector.Unreachable(c.Source(), fmt.Errorf("failed to list pods: %w", err))
	}

	var batches []collector.Batch
	for _, pod := range pods.Items {
		container := ""
		if len(pod.Spec.Containers) > 0 {
			container = pod.Spec.Containers[0].Name
		}

		text, err := podLogs(ctx, client, namespace, pod.Name, container, tail)
		if err != nil {
			c.log.Error("[KubernetesCollector] Failed to read logs for pod %s/%s: %v", namespace, pod.Name, err)
			continue
		}

		batches = append(batches, collector.Batch{
			Metadata: adapter.Metadata{
				"namespace": namespace,
				"pod":       pod.Name,
				"container": container,
			},
			Lines: []string{text},
		})
	}

	events, err := c.recentEvents(ctx, client, namespace)
	if err != nil {
		c.log.Error("[KubernetesCollector] Failed to list events in %s: %v", namespace, err)
	} else if len(events) > 0 {
		batches = append(batches, collector.Batch{Events: events})
	}

	c.log.Debug("[KubernetesCollector] Collected %d pods from namespace %s", len(pods.Items), namespace)
	return batches, nil
}

func podLogs(ctx context.Context, client kubernetes.Interface, namespace, pod, container string, tail int64) (string, error) {
	req := client.CoreV1().Pods(namespace).GetLogs(pod, &corev1.PodLogOptions{
		Container: container,
		TailLines: &tail,
	})

	stream, err := req.Stream(ctx)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Collector) recentEvents(ctx context.Context, client kubernetes.Interface, namespace string) ([]adapter.Event, error) {
	list, err := client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	cutoff := c.now().Add(-EventWindow)

	var events []adapter.Event
	for _, ev := range list.Items {
		when := eventTime(ev)
		if when.IsZero() || !when.After(cutoff) {
			continue
		}

		events = append(events, adapter.Event{
			Time:    when,
			Message: fmt.Sprintf("%s: %s", ev.Reason, ev.Message),
			Metadata: adapter.Metadata{
				"namespace": namespace,
				"kind":      ev.InvolvedObject.Kind,
				"name":      ev.InvolvedObject.Name,
				"type":      ev.Type,
				"reason":    ev.Reason,
			},
			Raw: ev,
		})
	}
	return events, nil
}

// eventTime prefers the last occurrence, then the first.
func eventTime(ev corev1.Event) time.Time {
	if !ev.LastTimestamp.IsZero() {
		return ev.LastTimestamp.Time
	}
	if !ev.EventTime.IsZero() {
		return ev.EventTime.Time
	}
	return ev.FirstTimestamp.Time
}

// DefaultClient builds a clientset from config.kubeConfigPath, the default
// loading rules, or the in-cluster environment.
func DefaultClient(cfg collector.Config) (kubernetes.Interface, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path := cfg.String("kubeConfigPath"); path != "" {
		rules.ExplicitPath = path
	}

	overrides := &clientcmd.ConfigOverrides{}
	if kubeContext := cfg.String("context"); kubeContext != "" {
		overrides.CurrentContext = kubeContext
	}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		inCluster, inErr := rest.InClusterConfig()
		if inErr != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
		restConfig = inCluster
	}

	return kubernetes.NewForConfig(restConfig)
}
