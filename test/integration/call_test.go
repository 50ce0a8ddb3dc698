package integration_test

import (
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"gopkg.in/gavv/httpexpect.v1"
)

var _ = Describe("Call", func() {

	var he *httpexpect.Expect

	BeforeEach(func() {
		By("set url")
		he = httpexpect.New(GinkgoT(), v1url)
	})

	Describe("Post a call", func() {
		Context("when the method exists on the server", func() {
			It("Should return 200 with the result", func() {
				obj := he.POST("/call").
					WithHeader("X-Remote-User", "ops").
					WithJSON(map[string]interface{}{
						"method": "host.get",
						"params": map[string]interface{}{"filter": map[string]interface{}{"host": "Zabbix server"}},
					}).
					Expect().
					Status(http.StatusOK).
					JSON().Object()
				obj.ValueEqual("changed", true)
				obj.Value("result").Array().Length().Equal(1)
				obj.Value("result").Array().Element(0).Object().ValueEqual("hostid", "10084")

				Expect(fake.called()).To(ContainElement("user.login"))
			})
		})

		Context("when the server rejects the call", func() {
			It("Should return 502 with the server message", func() {
				he.POST("/call").
					WithJSON(map[string]interface{}{"method": "host.create", "params": map[string]interface{}{"host": "Zabbix server"}}).
					Expect().
					Status(http.StatusBadGateway).
					JSON().Object().
					ValueEqual("failed", true).
					ValueEqual("msg", `Failed to call api: Error -32602: Invalid params. Host with the same name "Zabbix server" already exists.`)
			})
		})

		Context("when the method name is invalid", func() {
			It("Should return 400 without contacting the server", func() {
				before := len(fake.called())
				he.POST("/call").
					WithJSON(map[string]interface{}{"method": "host.get.all"}).
					Expect().
					Status(http.StatusBadRequest).
					JSON().Object().
					ValueEqual("msg", "host.get.all is invalid value.")
				Expect(fake.called()).To(HaveLen(before))
			})
		})

		Context("when the method is denied by policy", func() {
			It("Should return 403", func() {
				he.POST("/call").
					WithJSON(map[string]interface{}{"method": "host.delete", "params": map[string]interface{}{"0": "10084"}}).
					Expect().
					Status(http.StatusForbidden)
			})
		})

		Context("when check mode is requested", func() {
			It("Should report changed without calling the method", func() {
				before := len(fake.called())
				obj := he.POST("/call").
					WithJSON(map[string]interface{}{"method": "host.update", "check_mode": true}).
					Expect().
					Status(http.StatusOK).
					JSON().Object()
				obj.ValueEqual("changed", true)
				obj.NotContainsKey("result")
				Expect(fake.called()).To(HaveLen(before))
			})
		})
	})

	Describe("Read the history", func() {
		It("Should list the recorded calls", func() {
			he.POST("/call").
				WithJSON(map[string]interface{}{"method": "host.get"}).
				Expect().
				Status(http.StatusOK)

			arr := he.GET("/history").
				WithQuery("method", "host.get").
				Expect().
				Status(http.StatusOK).
				JSON().Array()
			arr.NotEmpty()
			arr.Element(0).Object().ValueEqual("method", "host.get")
		})

		It("Should return 404 for unknown ids", func() {
			he.GET("/history/999999").
				Expect().
				Status(http.StatusNotFound)
		})
	})
})
