package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func personFromRecord(record *neo4j.Record, key string) *Person {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	node, ok := val.(neo4j.Node)
	if !ok {
		return nil
	}
	p := personFromProps(node.Props)
	return &p
}

func personFromProps(props map[string]interface{}) Person {
	return Person{
		Phone:     getStringFromMap(props, "phone", ""),
		Name:      getStringFromMap(props, "name", ""),
		Email:     getStringFromMap(props, "email", ""),
		GoogleID:  getStringFromMap(props, "google_id", ""),
		IsAppUser: getBoolFromMap(props, "is_app_user", false),
		CreatedAt: getStringFromMap(props, "created_at", ""),
	}
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}

func getStringFromMap(m map[string]interface{}, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getBoolFromMap(m map[string]interface{}, key string, defaultValue bool) bool {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return defaultValue
}
