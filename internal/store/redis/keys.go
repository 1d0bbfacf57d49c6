package redis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jboss-openshift/openshift-kieserver/internal/lookup"
)

// KeyPrefix namespaces every key written for deployment lookups.
const KeyPrefix = "kie:redirect:"

// DeploymentKey returns the key holding the deployment id that owns an instance.
func DeploymentKey(kind, id string) string {
	return KeyPrefix + kind + ":" + id
}

func CorrelationKey(key string) string { return DeploymentKey(lookup.KindCorrelationKey, key) }
func ProcessInstanceKey(id int64) string {
	return DeploymentKey(lookup.KindProcessInstance, strconv.FormatInt(id, 10))
}
func TaskInstanceKey(id int64) string {
	return DeploymentKey(lookup.KindTaskInstance, strconv.FormatInt(id, 10))
}
func WorkItemKey(id int64) string {
	return DeploymentKey(lookup.KindWorkItem, strconv.FormatInt(id, 10))
}
func JobKey(id int64) string { return DeploymentKey(lookup.KindJob, strconv.FormatInt(id, 10)) }

// ParseDeploymentKey splits a key back into kind and id.
func ParseDeploymentKey(key string) (kind, id string, err error) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return "", "", fmt.Errorf("invalid deployment key: %s", key)
	}
	kind, id, ok = strings.Cut(rest, ":")
	if !ok || kind == "" || id == "" {
		return "", "", fmt.Errorf("invalid deployment key: %s", key)
	}
	return kind, id, nil
}
