package models_test

import (
	"math/rand/v2"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zdziszkee/mt103-simulator/internal/models"
)

var _ = Describe("Account", func() {
	var account *models.Account

	BeforeEach(func() {
		account = models.NewAccount("Rob Parker", "12345678901234567890", 1000)
	})

	It("should expose its name, number and balance", func() {
		Expect(account.Name()).To(Equal("Rob Parker"))
		Expect(account.Number()).To(Equal("12345678901234567890"))
		Expect(account.Balance()).To(Equal(1000))
	})

	It("should clamp a negative starting balance to zero", func() {
		Expect(models.NewAccount("x", "1", -5).Balance()).To(Equal(0))
	})

	Describe("Credit", func() {
		It("should add positive amounts", func() {
			account.Credit(250)
			Expect(account.Balance()).To(Equal(1250))
		})

		It("should ignore negative amounts", func() {
			account.Credit(-1)
			Expect(account.Balance()).To(Equal(1000))
		})
	})

	Describe("Debit", func() {
		It("should subtract when funds are sufficient", func() {
			Expect(account.Debit(400)).To(BeTrue())
			Expect(account.Balance()).To(Equal(600))
		})

		It("should allow draining the account exactly", func() {
			Expect(account.Debit(1000)).To(BeTrue())
			Expect(account.Balance()).To(Equal(0))
		})

		It("should refuse overdrafts without changing the balance", func() {
			Expect(account.Debit(1001)).To(BeFalse())
			Expect(account.Balance()).To(Equal(1000))
		})

		It("should refuse negative amounts without changing the balance", func() {
			Expect(account.Debit(-10)).To(BeFalse())
			Expect(account.Balance()).To(Equal(1000))
		})
	})

	Describe("DebitRandom", func() {
		It("should return zero for an empty account", func() {
			empty := models.NewAccount("Empty", "0", 0)
			Expect(empty.DebitRandom(nil)).To(Equal(0))
			Expect(empty.Balance()).To(Equal(0))
		})

		It("should only take what is there and account for it exactly", func() {
			rng := rand.New(rand.NewPCG(1, 2))
			for range 500 {
				before := account.Balance()
				lost := account.DebitRandom(rng)
				Expect(lost).To(BeNumerically(">=", 0))
				Expect(lost).To(BeNumerically("<=", before))
				Expect(account.Balance()).To(Equal(before - lost))
				if account.Balance() == 0 {
					account.Credit(1000)
				}
			}
		})

		It("should be able to draw both zero and the whole balance", func() {
			rng := rand.New(rand.NewPCG(7, 7))
			sawZero, sawAll := false, false
			for range 5000 {
				a := models.NewAccount("Tiny", "1", 1)
				switch a.DebitRandom(rng) {
				case 0:
					sawZero = true
				case 1:
					sawAll = true
				}
			}
			Expect(sawZero).To(BeTrue())
			Expect(sawAll).To(BeTrue())
		})
	})

	It("should keep the balance intact under concurrent credit and debit", func() {
		const workers = 8
		const pairs = 10000

		var negative sync.Once
		sawNegative := false
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for range pairs {
					account.Credit(1)
					account.Debit(1)
					if account.Balance() < 0 {
						negative.Do(func() { sawNegative = true })
					}
				}
			}()
		}
		wg.Wait()

		Expect(sawNegative).To(BeFalse())
		Expect(account.Balance()).To(Equal(1000))
	})
})
