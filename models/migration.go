package models

import (
	"log"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Store{}, &Vendor{}, &Brand{}, &PhoneModel{},
		&Imei{}, &StoreImeiLink{},
		&Purchase{}, &Sale{}, &StockRequest{},
		&SmsNotificationRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
