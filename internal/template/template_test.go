package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAgent() *AgentContext {
	return &AgentContext{
		UUID:      "test-uuid-1234",
		Name:      "TestAgent",
		Provider:  "anthropic",
		Model:     "claude-sonnet-4-5",
		CreatedAt: 1704067200,
	}
}

func testConfig() ConfigContext {
	return ConfigContext{
		"db_host": "localhost",
		"db_port": "5432",
	}
}

func TestProcess_NoVariables(t *testing.T) {
	r := Process("Plain text without variables", testAgent(), testConfig())
	assert.Equal(t, "Plain text without variables", r.Processed)
	assert.Empty(t, r.Unresolved)
}

func TestProcess_AgentFields(t *testing.T) {
	r := Process("Agent: ${agent.uuid}", testAgent(), testConfig())
	assert.Equal(t, "Agent: test-uuid-1234", r.Processed)
	assert.Empty(t, r.Unresolved)

	r = Process("Name: ${agent.name}", testAgent(), testConfig())
	assert.Equal(t, "Name: TestAgent", r.Processed)
}

func TestProcess_ConfigFields(t *testing.T) {
	r := Process("Database: ${config.db_host}:${config.db_port}", testAgent(), testConfig())
	assert.Equal(t, "Database: localhost:5432", r.Processed)
	assert.Empty(t, r.Unresolved)
}

func TestProcess_EnvHome(t *testing.T) {
	t.Setenv("IKIGAI_TEST_HOME", "/home/tester")
	r := Process("Home: ${env.IKIGAI_TEST_HOME}", testAgent(), testConfig())
	assert.Equal(t, "Home: /home/tester", r.Processed)
	assert.Empty(t, r.Unresolved)
}

func TestProcess_EscapeDoubleDollar(t *testing.T) {
	r := Process("Escaped: $${not.a.variable}", testAgent(), testConfig())
	assert.Equal(t, "Escaped: ${not.a.variable}", r.Processed)
	assert.Empty(t, r.Unresolved)
}

func TestProcess_UnresolvedVariable(t *testing.T) {
	r := Process("Bad: ${agent.uuuid}", testAgent(), testConfig())
	assert.Equal(t, "Bad: ${agent.uuuid}", r.Processed)
	assert.Equal(t, []string{"${agent.uuuid}"}, r.Unresolved)
}

func TestProcess_MultipleUnresolved(t *testing.T) {
	r := Process("${agent.uuuid} and ${config.foobar}", testAgent(), testConfig())
	assert.Equal(t, "${agent.uuuid} and ${config.foobar}", r.Processed)
	assert.Len(t, r.Unresolved, 2)
}

func TestProcess_FuncCwdAndHostname(t *testing.T) {
	r := Process("CWD: ${func.cwd}", testAgent(), testConfig())
	assert.Contains(t, r.Processed, "CWD: ")
	assert.Empty(t, r.Unresolved)

	r = Process("Host: ${func.hostname}", testAgent(), testConfig())
	assert.Contains(t, r.Processed, "Host: ")
	assert.Empty(t, r.Unresolved)
}

func TestProcess_NilAgentAndConfig(t *testing.T) {
	r := Process("${agent.uuid} ${config.db_host}", nil, nil)
	assert.Equal(t, "${agent.uuid} ${config.db_host}", r.Processed)
	assert.Len(t, r.Unresolved, 2)
}

func TestProcess_UnterminatedBrace(t *testing.T) {
	r := Process("prefix ${agent.uuid no close", testAgent(), testConfig())
	assert.Equal(t, "prefix ${agent.uuid no close", r.Processed)
	assert.Empty(t, r.Unresolved)
}
