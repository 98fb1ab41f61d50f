package schedule_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/keyurgolani/BabyNest-sub008/schedule"
)

func intPtr(n int) *int { return &n }

var _ = Describe("NextSendAt", func() {
	// Wednesday
	from := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	Context("daily frequency", func() {
		It("fires later today when the time is still ahead", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyDaily,
				Time:      "20:30",
			}, from)

			Expect(next).To(Equal(time.Date(2024, 6, 12, 20, 30, 0, 0, time.UTC)))
		})

		It("advances one day when the time has passed", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyDaily,
				Time:      "08:00",
			}, from)

			Expect(next).To(Equal(time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC)))
		})

		It("advances one day when the time is exactly now", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyDaily,
				Time:      "10:00",
			}, from)

			Expect(next).To(Equal(time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC)))
		})
	})

	Context("weekly frequency", func() {
		It("fires the following Monday when asked on a Wednesday", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyWeekly,
				Time:      "09:00",
				DayOfWeek: intPtr(1),
			}, from)

			// 2024-06-17 is the Monday after
			Expect(next).To(Equal(time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC)))
		})

		It("fires later in the same week for a later weekday", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyWeekly,
				Time:      "09:00",
				DayOfWeek: intPtr(5), // Friday
			}, from)

			Expect(next).To(Equal(time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)))
		})

		It("skips a full week when today's slot has passed", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyWeekly,
				Time:      "09:00",
				DayOfWeek: intPtr(3), // Wednesday, but it is already 10:00
			}, from)

			Expect(next).To(Equal(time.Date(2024, 6, 19, 9, 0, 0, 0, time.UTC)))
		})

		It("defaults to Monday when no day is configured", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyWeekly,
				Time:      "09:00",
			}, from)

			Expect(next.Weekday()).To(Equal(time.Monday))
		})
	})

	Context("monthly frequency", func() {
		It("fires later this month when the day is still ahead", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency:  schedule.FrequencyMonthly,
				Time:       "09:00",
				DayOfMonth: intPtr(20),
			}, from)

			Expect(next).To(Equal(time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)))
		})

		It("advances to next month when the day has passed", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency:  schedule.FrequencyMonthly,
				Time:       "09:00",
				DayOfMonth: intPtr(1),
			}, from)

			Expect(next).To(Equal(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)))
		})

		It("clamps the 31st to the last day of a 30-day month", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency:  schedule.FrequencyMonthly,
				Time:       "09:00",
				DayOfMonth: intPtr(31),
			}, from)

			// June has 30 days; must not roll into July
			Expect(next).To(Equal(time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)))
		})

		It("clamps the 31st to February 29th in a leap year", func() {
			feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

			next := schedule.NextSendAt(schedule.Config{
				Frequency:  schedule.FrequencyMonthly,
				Time:       "09:00",
				DayOfMonth: intPtr(31),
			}, feb)

			Expect(next).To(Equal(time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)))
		})

		It("handles a December rollover into the next year", func() {
			dec := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)

			next := schedule.NextSendAt(schedule.Config{
				Frequency:  schedule.FrequencyMonthly,
				Time:       "09:00",
				DayOfMonth: intPtr(15),
			}, dec)

			Expect(next).To(Equal(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)))
		})
	})

	Context("time-of-day parsing", func() {
		// Possibly unintended leniency inherited from the original behavior:
		// malformed values silently default instead of erroring.
		It("defaults a malformed time to 09:00", func() {
			next := schedule.NextSendAt(schedule.Config{
				Frequency: schedule.FrequencyDaily,
				Time:      "not-a-time",
			}, from)

			Expect(next.Hour()).To(Equal(9))
			Expect(next.Minute()).To(Equal(0))
		})

		It("defaults an out-of-range time to 09:00", func() {
			hour, minute := schedule.ParseTimeOfDay("25:99")

			Expect(hour).To(Equal(9))
			Expect(minute).To(Equal(0))
		})

		It("defaults an empty time to 09:00", func() {
			hour, minute := schedule.ParseTimeOfDay("")

			Expect(hour).To(Equal(9))
			Expect(minute).To(Equal(0))
		})
	})

	It("always returns an instant strictly after from", func() {
		configs := []schedule.Config{
			{Frequency: schedule.FrequencyDaily, Time: "10:00"},
			{Frequency: schedule.FrequencyWeekly, Time: "10:00", DayOfWeek: intPtr(3)},
			{Frequency: schedule.FrequencyMonthly, Time: "10:00", DayOfMonth: intPtr(12)},
		}

		for _, cfg := range configs {
			Expect(schedule.NextSendAt(cfg, from).After(from)).To(BeTrue())
		}
	})
})

var _ = Describe("ReportPeriod", func() {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	It("covers one day for daily reports", func() {
		start, end := schedule.ReportPeriod(schedule.FrequencyDaily, now)

		Expect(end).To(Equal(now))
		Expect(start).To(Equal(now.AddDate(0, 0, -1)))
	})

	It("covers seven days for weekly reports", func() {
		start, end := schedule.ReportPeriod(schedule.FrequencyWeekly, now)

		Expect(end).To(Equal(now))
		Expect(start).To(Equal(now.AddDate(0, 0, -7)))
	})

	It("covers one calendar month for monthly reports", func() {
		start, end := schedule.ReportPeriod(schedule.FrequencyMonthly, now)

		Expect(end).To(Equal(now))
		Expect(start).To(Equal(now.AddDate(0, -1, 0)))
	})
})
