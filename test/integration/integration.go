package integration

// For integration test, we chose BDD testcase framework.

// https://github.com/onsi/ginkgo
// More details please ref: http://onsi.github.io/ginkgo/

// zbxcall serves a restful API, for RESTFUL assert we use httpexpect
// https://github.com/gavv/httpexpect

// The suite runs the REST gateway in process against a fake Zabbix
// JSON-RPC server, so it needs no running daemon.
